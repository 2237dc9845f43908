// Package resolver validates the configured container reference and drives
// the auto-repair state machine when the schema is incomplete or the
// reference points at a plain page. The machine is explicit and testable
// without I/O; the remote store is reached only through the API interface.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/adalgu/notion-hugo-flow/internal/notion"
	"github.com/adalgu/notion-hugo-flow/pkg/types"
)

// Resolver states.
const (
	StateUnvalidated      = "unvalidated"
	StateValidContainer   = "valid_container"
	StatePageNoContainer  = "valid_page_no_container"
	StateInvalid          = "invalid"
	StateSchemaComplete   = "schema_complete"
	StateSchemaIncomplete = "schema_incomplete"
	StateContainerCreated = "container_created"
)

// API is the slice of the remote adapter the resolver needs.
type API interface {
	ValidateRef(ctx context.Context, ref string) (string, error)
	RetrieveContainer(ctx context.Context, id string) (*notion.ContainerInfo, error)
	AddSchemaFields(ctx context.Context, containerID string, fields map[string]string) error
	CreateContainer(ctx context.Context, parentPageID, title string, fields map[string]string) (string, error)
	EstimateRecordCount(ctx context.Context, containerID string, limit int) (int, error)
}

// Options control the repair paths.
type Options struct {
	// AutoRepair permits additive creation of missing required fields.
	AutoRepair bool
	// ConfirmCreate is the explicit confirmation required before a plain
	// page reference is turned into a new container.
	ConfirmCreate bool
	// NewContainerTitle names a container created under a plain page.
	NewContainerTitle string
	// FallbackParentID is the page a replacement container is created
	// under when additive repair is declined or fails. Empty disables the
	// fallback.
	FallbackParentID string
	// LargeThreshold is the estimated record count above which the
	// resolution carries a sampling recommendation. Zero disables the guard.
	LargeThreshold int
}

// Resolution is the outcome of resolving a reference.
type Resolution struct {
	State          string
	ContainerID    string
	Title          string
	CreatedFields  []string // schema fields created by additive repair
	Recommendation string   // set by the large-container guard
	EstimatedCount int
}

// Resolver drives the validation state machine.
type Resolver struct {
	api    API
	rules  []types.MappingRule
	opts   Options
	logger *log.Logger
}

// New creates a Resolver. The rules determine which schema fields count as
// required. A nil logger defaults to stderr.
func New(api API, rules []types.MappingRule, opts Options, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(os.Stderr, "[resolver] ", log.LstdFlags)
	}
	if opts.NewContainerTitle == "" {
		opts.NewContainerTitle = "Blog Posts"
	}
	return &Resolver{api: api, rules: rules, opts: opts, logger: logger}
}

// Resolve validates ref and walks the machine to a terminal state. The
// returned resolution always carries the final state, including on error.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Resolution, error) {
	res := &Resolution{State: StateUnvalidated}

	status, err := r.api.ValidateRef(ctx, ref)
	switch status {
	case notion.RefValidContainer:
		res.State = StateValidContainer
	case notion.RefPageNoContainer:
		res.State = StatePageNoContainer
		return r.resolvePage(ctx, ref, res)
	default:
		res.State = StateInvalid
		return res, capabilityFor(err)
	}

	info, err := r.api.RetrieveContainer(ctx, ref)
	if err != nil {
		res.State = StateInvalid
		return res, capabilityFor(err)
	}
	res.ContainerID = info.ID
	res.Title = info.Title

	missing := r.missingRequired(info)
	if len(missing) == 0 {
		res.State = StateSchemaComplete
		return r.checkSize(ctx, res)
	}

	res.State = StateSchemaIncomplete
	if r.opts.AutoRepair {
		template := SchemaTemplate(r.rules)
		create := make(map[string]string, len(missing))
		for _, name := range missing {
			create[name] = template[name]
		}
		err := r.api.AddSchemaFields(ctx, info.ID, create)
		if err == nil {
			r.logger.Printf("created %d missing schema fields on %s", len(create), info.ID)
			res.CreatedFields = missing
			res.State = StateSchemaComplete
			return r.checkSize(ctx, res)
		}
		r.logger.Printf("additive repair of %s failed: %v", info.ID, err)
	}
	return r.fallbackContainer(ctx, res, missing)
}

// fallbackContainer replaces an unrepairable container with a brand-new
// one under the configured parent page. Like the page path, creation needs
// explicit confirmation. Declined repair without a confirmed fallback is
// still actionable by the user, so it keeps the schema error; an attempted
// repair that failed has exhausted every route and reports the missing
// create capability instead.
func (r *Resolver) fallbackContainer(ctx context.Context, res *Resolution, missing []string) (*Resolution, error) {
	if r.opts.ConfirmCreate && r.opts.FallbackParentID != "" {
		template := SchemaTemplate(r.rules)
		id, err := r.api.CreateContainer(ctx, r.opts.FallbackParentID, r.opts.NewContainerTitle, template)
		if err != nil {
			return res, capabilityFor(err)
		}
		r.logger.Printf("created replacement container %s under page %s", id, r.opts.FallbackParentID)
		res.State = StateContainerCreated
		res.ContainerID = id
		res.Title = r.opts.NewContainerTitle
		for name := range template {
			res.CreatedFields = append(res.CreatedFields, name)
		}
		return res, nil
	}

	if r.opts.AutoRepair {
		return res, &types.CapabilityError{
			Capability: "create",
			Detail: fmt.Sprintf("schema of %s is missing %v, additive repair failed, and no fallback parent is confirmed",
				res.ContainerID, missing),
		}
	}
	return res, &types.SchemaError{ContainerID: res.ContainerID, MissingFields: missing}
}

// resolvePage handles a reference that is a plain page. With explicit
// confirmation a new container is created under it; otherwise the
// resolution reports what the caller must confirm.
func (r *Resolver) resolvePage(ctx context.Context, ref string, res *Resolution) (*Resolution, error) {
	if !r.opts.ConfirmCreate {
		res.Recommendation = "reference is a page with no container; re-run with container creation confirmed to create one"
		return res, nil
	}

	template := SchemaTemplate(r.rules)
	id, err := r.api.CreateContainer(ctx, ref, r.opts.NewContainerTitle, template)
	if err != nil {
		res.State = StateInvalid
		return res, capabilityFor(err)
	}
	r.logger.Printf("created container %s under page %s", id, ref)
	res.State = StateContainerCreated
	res.ContainerID = id
	res.Title = r.opts.NewContainerTitle
	for name := range template {
		res.CreatedFields = append(res.CreatedFields, name)
	}
	return res, nil
}

// checkSize applies the large-container guard: over the threshold the
// resolution recommends sampling rather than silently truncating.
func (r *Resolver) checkSize(ctx context.Context, res *Resolution) (*Resolution, error) {
	if r.opts.LargeThreshold <= 0 {
		return res, nil
	}
	count, err := r.api.EstimateRecordCount(ctx, res.ContainerID, r.opts.LargeThreshold)
	if err != nil {
		// The guard is advisory; a counting failure never blocks the run.
		r.logger.Printf("record count estimate failed for %s: %v", res.ContainerID, err)
		return res, nil
	}
	res.EstimatedCount = count
	if count > r.opts.LargeThreshold {
		res.Recommendation = fmt.Sprintf(
			"container holds at least %d records (threshold %d); consider sampling or narrowing the source",
			count, r.opts.LargeThreshold)
	}
	return res, nil
}

// missingRequired returns the required source fields absent from the
// container schema, in rule order. A rule is satisfied when any source key
// in its chain exists; system sources always exist.
func (r *Resolver) missingRequired(info *notion.ContainerInfo) []string {
	var missing []string
	for _, rule := range r.rules {
		if !rule.Required {
			continue
		}
		satisfied := false
		primary := ""
		for _, key := range rule.SourceKeys {
			if isSystemSource(key) {
				satisfied = true
				break
			}
			if primary == "" {
				primary = key
			}
			if schemaHas(info.Properties, key) {
				satisfied = true
				break
			}
		}
		if !satisfied && primary != "" {
			missing = append(missing, primary)
		}
	}
	return missing
}

// SchemaTemplate derives the remote property definitions the mapping rules
// expect: the primary source key of each rule with a remote type inferred
// from its transform.
func SchemaTemplate(rules []types.MappingRule) map[string]string {
	template := make(map[string]string)
	for _, rule := range rules {
		primary := ""
		for _, key := range rule.SourceKeys {
			if !isSystemSource(key) {
				primary = key
				break
			}
		}
		if primary == "" {
			continue
		}
		if _, ok := template[primary]; ok {
			continue
		}
		template[primary] = remoteTypeFor(rule)
	}
	return template
}

func remoteTypeFor(rule types.MappingRule) string {
	switch rule.Transform {
	case types.TransformInverseBoolean:
		return "checkbox"
	case types.TransformDatePassthrough:
		return "date"
	case types.TransformSetJoin:
		return "multi_select"
	}
	if rule.TargetKey == "title" {
		return "title"
	}
	if rule.TargetKey == "weight" {
		return "number"
	}
	return "rich_text"
}

func isSystemSource(key string) bool {
	switch key {
	case types.SourceRecordID, types.SourceCreatedTime, types.SourceLastEditedTime:
		return true
	}
	return false
}

// schemaHas matches a property name against the schema case-insensitively,
// mirroring how the mapper resolves source keys.
func schemaHas(props map[string]string, name string) bool {
	if _, ok := props[name]; ok {
		return true
	}
	for k := range props {
		if len(k) == len(name) && equalFoldASCII(k, name) {
			return true
		}
	}
	return false
}

func equalFoldASCII(a, b string) bool {
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// capabilityFor turns a remote failure into a structured error naming the
// exact missing capability.
func capabilityFor(err error) error {
	var re *types.RemoteError
	if errors.As(err, &re) {
		switch re.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return &types.CapabilityError{Capability: "read", Detail: re.Message}
		case http.StatusNotFound:
			return &types.CapabilityError{Capability: "read", Detail: "reference is not visible to the credential: " + re.Message}
		}
		if re.Status == http.StatusBadRequest {
			return &types.CapabilityError{Capability: "write", Detail: re.Message}
		}
	}
	if err == nil {
		return &types.CapabilityError{Capability: "read", Detail: "reference could not be validated"}
	}
	return err
}
