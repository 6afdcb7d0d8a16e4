package booking

import (
	"context"
	"errors"
	"sort"
	"time"

	"resort-booking-backend/internal/model"
	"resort-booking-backend/internal/store"
)

// Reason explains an empty planner result.
type Reason string

const (
	// ReasonNone means feasible options were found.
	ReasonNone Reason = ""
	// ReasonCapacityExhausted means every candidate failed the capacity
	// check; the caller may offer the waitlist.
	ReasonCapacityExhausted Reason = "CAPACITY_EXHAUSTED"
)

// Request is an ephemeral availability query. Either ResourceID pins a
// single resource or ResourceType selects all active resources of that type
// (plus fallback types) for the tenant.
type Request struct {
	TenantID     string
	ResourceID   string
	ResourceType model.ResourceType
	Start        time.Time
	End          time.Time
	PartySize    int
}

// Option is one feasible resource, annotated for ranking and display.
type Option struct {
	ResourceID   string             `json:"resourceId"`
	ResourceName string             `json:"resourceName"`
	ResourceType model.ResourceType `json:"resourceType"`
	Capacity     int                `json:"capacity"`
	Utilization  int                `json:"utilization"`
	ExactMatch   bool               `json:"exactMatch"`
}

// Result is the planner's answer: ranked feasible options or a reason.
type Result struct {
	Feasible []Option `json:"feasible"`
	Reason   Reason   `json:"reason"`
}

// Planner resolves availability queries. It is a pure read and safe to run
// fully concurrently; its answer is advisory, the commit workflow re-checks.
type Planner struct {
	store    store.Store
	detector *Detector
}

// NewPlanner creates a planner over the given store.
func NewPlanner(s store.Store) *Planner {
	return &Planner{store: s, detector: NewDetector(s)}
}

// fallbackTypes returns the suite types a request may be upgraded to when
// its exact type is full. Non-suite resources have no fallback.
func fallbackTypes(t model.ResourceType) []model.ResourceType {
	switch t {
	case model.ResourceSuiteStandard:
		return []model.ResourceType{model.ResourceSuitePlus, model.ResourceSuiteVIP}
	case model.ResourceSuitePlus:
		return []model.ResourceType{model.ResourceSuiteVIP}
	default:
		return nil
	}
}

// ServableTypes returns the request types a resource of type t can satisfy,
// the inverse of the fallback chain. The waitlist manager uses it to find
// entries eligible for a freed resource.
func ServableTypes(t model.ResourceType) []model.ResourceType {
	types := []model.ResourceType{t}
	switch t {
	case model.ResourceSuiteVIP:
		types = append(types, model.ResourceSuitePlus, model.ResourceSuiteStandard)
	case model.ResourceSuitePlus:
		types = append(types, model.ResourceSuiteStandard)
	}
	return types
}

// FindAvailable resolves the candidate set, runs the capacity check per
// candidate, and returns feasible options ranked by exact type match, lowest
// utilization, then resource id.
func (p *Planner) FindAvailable(ctx context.Context, req Request) (*Result, error) {
	if req.TenantID == "" {
		return nil, invalidRequestf("tenant id is required")
	}
	if err := ValidateRange(req.Start, req.End); err != nil {
		return nil, err
	}
	if req.PartySize < 1 {
		return nil, invalidRequestf("party size must be at least 1")
	}

	candidates, err := p.resolveCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	var feasible []Option
	for i := range candidates {
		res := &candidates[i]
		ok, used, err := p.detector.HasCapacity(ctx, res, req.Start, req.End, req.PartySize)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		feasible = append(feasible, Option{
			ResourceID:   res.ID,
			ResourceName: res.Name,
			ResourceType: res.Type,
			Capacity:     res.Capacity,
			Utilization:  used,
			ExactMatch:   req.ResourceType == "" || res.Type == req.ResourceType,
		})
	}

	if len(feasible) == 0 {
		return &Result{Reason: ReasonCapacityExhausted}, nil
	}

	sort.SliceStable(feasible, func(i, j int) bool {
		a, b := feasible[i], feasible[j]
		if a.ExactMatch != b.ExactMatch {
			return a.ExactMatch
		}
		if a.Utilization != b.Utilization {
			return a.Utilization < b.Utilization
		}
		return a.ResourceID < b.ResourceID
	})

	return &Result{Feasible: feasible}, nil
}

// resolveCandidates returns the resources to check, in deterministic order
// so identical queries yield identical results.
func (p *Planner) resolveCandidates(ctx context.Context, req Request) ([]model.Resource, error) {
	if req.ResourceID != "" {
		res, err := p.store.GetResource(ctx, req.TenantID, req.ResourceID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, &Error{Code: CodeNotFound, ResourceID: req.ResourceID, Detail: "resource not found"}
		}
		if err != nil {
			return nil, err
		}
		if !res.Active {
			return nil, nil
		}
		return []model.Resource{*res}, nil
	}

	if !model.KnownResourceType(req.ResourceType) {
		return nil, invalidRequestf("unknown resource type %q", req.ResourceType)
	}

	types := append([]model.ResourceType{req.ResourceType}, fallbackTypes(req.ResourceType)...)
	resources, err := p.store.ListResources(ctx, req.TenantID, types...)
	if err != nil {
		return nil, err
	}

	active := resources[:0]
	for _, r := range resources {
		if r.Active {
			active = append(active, r)
		}
	}
	return active, nil
}
