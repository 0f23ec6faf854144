// Package orchestrator drives the per-domain scan pipeline: profile
// resolution, the registration and activity gates, parallel check
// execution, and persistence of results and discovered domains.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/balticscan/domain-analyzer/internal/analyzer"
	"github.com/balticscan/domain-analyzer/internal/catalog"
	"github.com/balticscan/domain-analyzer/internal/checks"
	"github.com/balticscan/domain-analyzer/internal/config"
	"github.com/balticscan/domain-analyzer/internal/domainutil"
	"github.com/balticscan/domain-analyzer/internal/model"
	"github.com/balticscan/domain-analyzer/internal/output"
	"github.com/balticscan/domain-analyzer/internal/probe"
	"github.com/balticscan/domain-analyzer/internal/store"
)

// RegistrationChecker answers the DAS availability question.
type RegistrationChecker interface {
	Check(ctx context.Context, domain string) (*model.RegistrationData, error)
}

// WhoisLookuper performs the rate-limited port-43 lookup.
type WhoisLookuper interface {
	Lookup(ctx context.Context, domain string) (*model.WhoisData, error)
	TimeUntilAvailable() time.Duration
}

// HTTPProber probes the domain's web endpoint.
type HTTPProber interface {
	Probe(ctx context.Context, domain string) (*model.HTTPData, error)
}

// DNSProber resolves the domain's records.
type DNSProber interface {
	Probe(ctx context.Context, domain string) (*model.DNSData, error)
}

// TLSProber inspects the domain's certificate.
type TLSProber interface {
	Probe(ctx context.Context, domain string) (*model.TLSData, error)
}

// Deps bundles everything the orchestrator calls out to. Store and
// Progress may be nil.
type Deps struct {
	Catalog  *catalog.Catalog
	Config   *config.Config
	DAS      RegistrationChecker
	Whois    WhoisLookuper
	HTTP     HTTPProber
	DNS      DNSProber
	TLS      TLSProber
	Checks   *checks.Runner
	Store    store.Store
	Logger   *zap.Logger
	Progress *output.Progress
}

// Orchestrator coordinates scans across a batch of domains.
type Orchestrator struct {
	deps   Deps
	logger *zap.Logger
}

// New creates an Orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{deps: deps, logger: logger}
}

// domainState accumulates one domain's scan as checks complete.
// Checks within a parallel group run concurrently and serialize their
// writes through mu.
type domainState struct {
	mu        sync.Mutex
	domain    string
	result    *model.Result
	input     checks.Input
	gateSkip  string
	budgetHit bool
}

func (s *domainState) setCheck(name string, check *model.CheckResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result.Checks[name] = check
}

// ran reports whether the profile's check was already recorded, in any
// status. Used to avoid re-running the gate probes inside the regular
// groups.
func (s *domainState) ran(profileName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.result.Checks[checkKey(profileName)]
	return ok
}

// RunBatch resolves the profile request once and scans every domain
// through a bounded worker pool. Results come back in input order;
// a canceled context yields the partial set scanned so far.
func (o *Orchestrator) RunBatch(ctx context.Context, domains []string, profileRequest string) ([]*model.Result, error) {
	plan, err := o.deps.Catalog.ResolveRequest(profileRequest)
	if err != nil {
		return nil, err
	}
	taskID := uuid.NewString()

	o.logger.Info("scan starting",
		zap.Int("domains", len(domains)),
		zap.Strings("profiles", plan.Requested),
		zap.Strings("order", plan.ExecutionOrder),
		zap.String("task_id", taskID))

	concurrency := o.deps.Config.Network.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	results := make([]*model.Result, len(domains))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, raw := range domains {
		wg.Add(1)
		go func(i int, raw string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i] = canceledResult(raw, plan, taskID)
				return
			}

			result := o.ScanDomain(ctx, raw, plan, taskID)
			o.persist(ctx, result)
			results[i] = result
			if o.deps.Progress != nil {
				o.deps.Progress.Domain(result)
			}
		}(i, raw)
	}
	wg.Wait()

	return results, nil
}

// ScanDomain runs the resolved plan against one domain.
func (o *Orchestrator) ScanDomain(ctx context.Context, rawDomain string, plan *catalog.Plan, taskID string) *model.Result {
	start := time.Now()
	domain := domainutil.Normalize(rawDomain)

	if budget := o.deps.Config.PerDomainBudget(); budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	state := &domainState{
		domain: domain,
		result: &model.Result{
			Domain: domain,
			Checks: make(map[string]*model.CheckResult),
		},
	}
	state.input.Domain = domain

	// The registration gate runs before everything else so an
	// unregistered domain costs one DAS query, not a full probe round.
	gateProfile := registrationProfile(plan)
	if gateProfile != "" {
		o.runProfile(ctx, state, gateProfile)
	}

	// The activity gate needs the HTTP and DNS probes first. When the
	// plan carries the active profile those three run ahead of the
	// regular groups, so a dead site is ruled out before any TLS or
	// content work starts.
	if state.gateSkip == "" && ctx.Err() == nil && plan.Contains("active") {
		var g errgroup.Group
		for _, name := range []string{"dns", "http"} {
			name := name
			g.Go(func() error {
				o.runProfile(ctx, state, name)
				return nil
			})
		}
		g.Wait()
		o.runProfile(ctx, state, "active")
		if active := o.activeData(state); active != nil && !active.Active {
			state.gateSkip = model.SkipInactive
		}
	}

	for _, group := range plan.ParallelGroups {
		if state.gateSkip != "" {
			break
		}
		if ctx.Err() != nil {
			state.budgetHit = true
			break
		}

		var g errgroup.Group
		for _, name := range group {
			if state.ran(name) {
				continue
			}
			name := name
			g.Go(func() error {
				o.runProfile(ctx, state, name)
				return nil
			})
		}
		g.Wait()
	}

	o.finish(state, plan, taskID, start)
	return state.result
}

// runProfile executes one profile's checks and records their results.
func (o *Orchestrator) runProfile(ctx context.Context, state *domainState, profileName string) {
	if ctx.Err() != nil {
		state.mu.Lock()
		state.budgetHit = true
		state.mu.Unlock()
		return
	}

	switch profileName {
	case "quick-whois":
		o.runRegistration(ctx, state, false)
	case "whois":
		o.runRegistration(ctx, state, true)
	case "dns":
		o.runDNS(ctx, state)
	case "http":
		o.runHTTP(ctx, state)
	case "ssl":
		o.runTLS(ctx, state)
	case "active":
		o.runActive(state)
	case "content":
		o.runRegistryCheck(ctx, state, "content", "content_fetch")
	case "headers":
		o.runRegistryCheck(ctx, state, "headers", "security_headers")
	case "security":
		o.runRegistryCheck(ctx, state, "security", "security_grade")
	case "seo":
		o.runRegistryCheck(ctx, state, "seo", "seo_signals")
	case "tech":
		o.runRegistryCheck(ctx, state, "tech", "tech_fingerprint")
	default:
		o.logger.Warn("profile has no executor", zap.String("profile", profileName))
	}
}

// runRegistration performs the DAS query and, for the full profile,
// the port-43 enrichment. It arms the registration gate.
func (o *Orchestrator) runRegistration(ctx context.Context, state *domainState, fullWhois bool) {
	started := time.Now()

	reg, err := o.deps.DAS.Check(ctx, state.domain)
	if err != nil {
		state.setCheck("whois", &model.CheckResult{
			Status:     model.CheckError,
			Error:      err.Error(),
			Kind:       probe.ClassifyErrorKind(err),
			DurationMs: time.Since(started).Milliseconds(),
		})
		return
	}

	check := &model.CheckResult{Status: model.CheckSuccess, Data: reg}

	if reg.Registered != nil && !*reg.Registered {
		state.mu.Lock()
		state.gateSkip = model.SkipUnregistered
		state.mu.Unlock()
	} else if fullWhois {
		whois, err := o.deps.Whois.Lookup(ctx, state.domain)
		switch {
		case errors.Is(err, probe.ErrRateLimited):
			check.Status = model.CheckRateLimited
			check.Error = err.Error()
			check.TimeUntilAvailableSec = o.deps.Whois.TimeUntilAvailable().Seconds()
		case err != nil:
			check.Status = model.CheckError
			check.Error = err.Error()
			check.Kind = probe.ClassifyErrorKind(err)
		default:
			reg.Whois = whois
		}
	}

	check.DurationMs = time.Since(started).Milliseconds()
	state.setCheck("whois", check)
}

func (o *Orchestrator) runDNS(ctx context.Context, state *domainState) {
	started := time.Now()
	data, err := o.deps.DNS.Probe(ctx, state.domain)
	check := checkFromProbe(data, err, started)
	if err == nil {
		state.mu.Lock()
		state.input.DNS = data
		state.mu.Unlock()
	}
	state.setCheck("dns", check)
}

func (o *Orchestrator) runHTTP(ctx context.Context, state *domainState) {
	started := time.Now()
	data, err := o.deps.HTTP.Probe(ctx, state.domain)
	check := checkFromProbe(data, err, started)
	if err == nil {
		state.mu.Lock()
		state.input.HTTP = data
		state.mu.Unlock()
	}
	state.setCheck("http", check)
}

func (o *Orchestrator) runTLS(ctx context.Context, state *domainState) {
	started := time.Now()
	data, err := o.deps.TLS.Probe(ctx, state.domain)
	check := checkFromProbe(data, err, started)
	if err == nil {
		state.mu.Lock()
		state.input.TLS = data
		state.mu.Unlock()
	}
	state.setCheck("ssl", check)
}

// runActive classifies activity from the probes that already ran.
// It never fails: absent probe data classifies as not active.
func (o *Orchestrator) runActive(state *domainState) {
	started := time.Now()
	state.mu.Lock()
	httpData := state.input.HTTP
	dnsData := state.input.DNS
	state.mu.Unlock()

	data := analyzer.Classify(state.domain, httpData, dnsData, analyzer.Options{
		KeepPatterns: o.deps.Config.RedirectCapture.KeepSubdomainsFor,
		Ignore:       o.deps.Config.RedirectCapture.IgnoreCommonServices,
	})
	state.setCheck("active", &model.CheckResult{
		Status:     model.CheckSuccess,
		Data:       data,
		DurationMs: time.Since(started).Milliseconds(),
	})
}

// runRegistryCheck dispatches to the named check in the checks
// registry.
func (o *Orchestrator) runRegistryCheck(ctx context.Context, state *domainState, key, checkName string) {
	started := time.Now()
	fn, ok := o.deps.Checks.Lookup(checkName)
	if !ok {
		state.setCheck(key, &model.CheckResult{
			Status: model.CheckError,
			Error:  "check not registered: " + checkName,
		})
		return
	}

	state.mu.Lock()
	in := &state.input
	state.mu.Unlock()

	data, err := fn(ctx, in)
	check := &model.CheckResult{DurationMs: time.Since(started).Milliseconds()}
	if err != nil {
		check.Status = model.CheckError
		check.Error = err.Error()
		check.Kind = probe.ClassifyErrorKind(err)
	} else {
		check.Status = model.CheckSuccess
		check.Data = data
	}
	state.setCheck(key, check)
}

func (o *Orchestrator) activeData(state *domainState) *model.ActiveData {
	state.mu.Lock()
	defer state.mu.Unlock()
	check, ok := state.result.Checks["active"]
	if !ok || check.Data == nil {
		return nil
	}
	data, _ := check.Data.(*model.ActiveData)
	return data
}

// finish computes the summary, status, and metadata.
func (o *Orchestrator) finish(state *domainState, plan *catalog.Plan, taskID string, start time.Time) {
	r := state.result
	o.summarize(state)

	var success, failed int
	for _, check := range r.Checks {
		if check.Status == model.CheckSuccess {
			success++
		} else {
			failed++
		}
	}

	switch {
	case state.gateSkip != "":
		r.Status = model.StatusSkipped
		r.SkipReason = state.gateSkip
	case state.budgetHit:
		r.Status = model.StatusPartial
		r.Error = "timeout"
	case failed == 0:
		r.Status = model.StatusSuccess
	case success > 0:
		r.Status = model.StatusPartial
	default:
		r.Status = model.StatusError
		r.Error = "all checks failed"
	}

	r.Meta = model.Meta{
		Timestamp:        start.UTC().Format(time.RFC3339),
		ExecutionTimeSec: time.Since(start).Seconds(),
		SchemaVersion:    model.SchemaVersion,
		TaskID:           taskID,
		Profiles: model.ProfilesMeta{
			Requested:      plan.Requested,
			Expanded:       plan.Expanded,
			Executed:       executedProfiles(r, plan),
			ExecutionOrder: plan.ExecutionOrder,
			ParallelGroups: plan.ParallelGroups,
		},
	}
}

// summarize fills Result.Summary from the collected checks.
func (o *Orchestrator) summarize(state *domainState) {
	r := state.result
	summary := &r.Summary

	if check, ok := r.Checks["http"]; ok && check.Data != nil {
		if h, ok := check.Data.(*model.HTTPData); ok {
			summary.Reachable = h.Reachable
			summary.HTTPS = h.HTTPS
		}
	}
	if check, ok := r.Checks["security"]; ok && check.Data != nil {
		if sec, ok := check.Data.(*model.SecurityData); ok {
			summary.Grade = sec.Grade
			summary.Issues = append(summary.Issues, sec.Findings...)
		}
	}
	if check, ok := r.Checks["seo"]; ok && check.Data != nil {
		if seo, ok := check.Data.(*model.SEOData); ok {
			summary.Warnings = append(summary.Warnings, seo.Issues...)
		}
	}
	if check, ok := r.Checks["ssl"]; ok && check.Data != nil {
		if tls, ok := check.Data.(*model.TLSData); ok {
			if tls.DaysUntilExpiry >= 0 && tls.DaysUntilExpiry <= 14 {
				summary.Warnings = append(summary.Warnings, "certificate expires soon")
			}
		}
	}
	for name, check := range r.Checks {
		if check.Status == model.CheckError {
			summary.Issues = append(summary.Issues, name+" check failed")
		}
	}
}

// persist writes the scan outcome through the store, when one is
// configured.
func (o *Orchestrator) persist(ctx context.Context, result *model.Result) {
	if o.deps.Store == nil {
		return
	}
	// Persistence must survive a canceled scan context.
	ctx = context.WithoutCancel(ctx)

	domainID, err := o.deps.Store.GetOrCreateDomain(ctx, result.Domain)
	if err != nil {
		o.logger.Error("persist domain", zap.String("domain", result.Domain), zap.Error(err))
		return
	}

	var isRegistered, isActive *bool
	if check, ok := result.Checks["whois"]; ok && check.Data != nil {
		if reg, ok := check.Data.(*model.RegistrationData); ok {
			isRegistered = reg.Registered
		}
	}
	var active *model.ActiveData
	if check, ok := result.Checks["active"]; ok && check.Data != nil {
		active, _ = check.Data.(*model.ActiveData)
	}
	if active != nil {
		isActive = &active.Active
	}

	if err := o.deps.Store.UpdateDomainFlags(ctx, domainID, isRegistered, isActive); err != nil {
		o.logger.Error("persist flags", zap.String("domain", result.Domain), zap.Error(err))
	}
	if err := o.deps.Store.SaveResult(ctx, domainID, result.Meta.TaskID, result); err != nil {
		o.logger.Error("persist result", zap.String("domain", result.Domain), zap.Error(err))
	}

	if active != nil {
		for _, captured := range active.CapturedDomains {
			inserted, err := o.deps.Store.InsertCapturedDomain(ctx, captured, result.Domain, "redirect", map[string]interface{}{
				"status":       active.StatusCode,
				"chain_length": len(active.RedirectChain),
			})
			if err != nil {
				o.logger.Error("persist discovery",
					zap.String("domain", captured),
					zap.String("from", result.Domain),
					zap.Error(err))
				continue
			}
			if inserted {
				o.logger.Info("captured new domain",
					zap.String("domain", captured),
					zap.String("from", result.Domain))
			}
		}
	}
}

// registrationProfile returns whichever registration profile the plan
// carries, "" when it has neither.
func registrationProfile(plan *catalog.Plan) string {
	if plan.Contains("whois") {
		return "whois"
	}
	if plan.Contains("quick-whois") {
		return "quick-whois"
	}
	return ""
}

// checkKey maps a profile name to the key its result is filed under.
func checkKey(profileName string) string {
	if profileName == "quick-whois" {
		return "whois"
	}
	return profileName
}

// executedProfiles lists the plan profiles whose checks actually ran.
// Profiles gated out by a skip never enter the checks map.
func executedProfiles(r *model.Result, plan *catalog.Plan) []string {
	var executed []string
	for _, name := range plan.ExecutionOrder {
		if _, ok := r.Checks[checkKey(name)]; ok {
			executed = append(executed, name)
		}
	}
	return executed
}

// checkFromProbe normalizes a probe's (data, err) pair.
func checkFromProbe(data interface{}, err error, started time.Time) *model.CheckResult {
	check := &model.CheckResult{DurationMs: time.Since(started).Milliseconds()}
	if err != nil {
		check.Status = model.CheckError
		check.Error = err.Error()
		check.Kind = probe.ClassifyErrorKind(err)
		return check
	}
	check.Status = model.CheckSuccess
	check.Data = data
	return check
}

// canceledResult marks a domain that never started because the batch
// was interrupted.
func canceledResult(rawDomain string, plan *catalog.Plan, taskID string) *model.Result {
	domain := domainutil.Normalize(rawDomain)
	return &model.Result{
		Domain: domain,
		Status: model.StatusError,
		Error:  "scan canceled",
		Checks: make(map[string]*model.CheckResult),
		Meta: model.Meta{
			Timestamp:     time.Now().UTC().Format(time.RFC3339),
			SchemaVersion: model.SchemaVersion,
			TaskID:        taskID,
			Profiles: model.ProfilesMeta{
				Requested:      plan.Requested,
				Expanded:       plan.Expanded,
				ExecutionOrder: plan.ExecutionOrder,
				ParallelGroups: plan.ParallelGroups,
			},
		},
	}
}
