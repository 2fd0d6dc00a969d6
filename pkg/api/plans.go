package api

import (
	"encoding/json"
	"io"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/planwheel/planwheel/pkg/plan"
)

// defaultPlanName is the plan the deprecated unprefixed endpoints address.
const defaultPlanName = "deploy"

// envVarPattern is the shape every start parameter key must have.
var envVarPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func planName(r *http.Request) string {
	if name := r.PathValue("name"); name != "" {
		return name
	}
	return defaultPlanName
}

// manager resolves the named plan, trying a UUID match first and falling
// back to a name match.
func (s *Server) manager(name string) (plan.PlanManager, bool) {
	managers := s.source.Managers()
	if id, err := uuid.Parse(name); err == nil {
		for _, m := range managers {
			if m.Plan().ID() == id {
				return m, true
			}
		}
	}
	for _, m := range managers {
		if m.Plan().Name() == name {
			return m, true
		}
	}
	return nil, false
}

// matchPhases returns every phase matching the filter, which may be a phase
// UUID or a phase name. Name matches may be plural.
func matchPhases(p *plan.Plan, filter string) []*plan.Phase {
	if id, err := uuid.Parse(filter); err == nil {
		for _, phase := range p.Children() {
			if phase.ID() == id {
				return []*plan.Phase{phase}
			}
		}
		return nil
	}
	var phases []*plan.Phase
	for _, phase := range p.Children() {
		if phase.Name() == filter {
			phases = append(phases, phase)
		}
	}
	return phases
}

// matchStep resolves the filter, which may be a step UUID or a step name, to
// a single step within the given phases. A name matching zero or several
// steps resolves to nothing.
func matchStep(phases []*plan.Phase, filter string) (plan.Step, bool) {
	if id, err := uuid.Parse(filter); err == nil {
		for _, phase := range phases {
			for _, step := range phase.Children() {
				if step.ID() == id {
					return step, true
				}
			}
		}
		return nil, false
	}
	var match plan.Step
	for _, phase := range phases {
		for _, step := range phase.Children() {
			if step.Name() == filter {
				if match != nil {
					return nil, false
				}
				match = step
			}
		}
	}
	return match, match != nil
}

func (s *Server) handleListPlans(w http.ResponseWriter, _ *http.Request) {
	var names []string
	for _, m := range s.source.Managers() {
		names = append(names, m.Plan().Name())
	}
	s.writeJSON(w, http.StatusOK, names)
}

// handleGetPlan returns the full tree snapshot: 200 once the plan is
// complete, 202 while it is not.
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(planName(r))
	if !ok {
		s.writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	p := m.Plan()
	status := http.StatusAccepted
	if p.IsComplete() {
		status = http.StatusOK
	}
	s.writeJSON(w, status, NewPlanInfo(p))
}

// handleStart merges parameters into the plan and sets it running. A
// completed plan is restarted first. Parameter keys must look like
// environment variable names; any violation rejects the whole call before
// any state is touched.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(planName(r))
	if !ok {
		s.recordCommand("start", "not_found")
		s.writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	params, err := decodeParameters(r)
	if err != nil {
		s.recordCommand("start", "bad_request")
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	for key := range params {
		if !envVarPattern.MatchString(key) {
			s.recordCommand("start", "bad_request")
			s.writeError(w, http.StatusBadRequest, "invalid parameter name: "+key)
			return
		}
	}

	p := m.Plan()
	if len(params) > 0 {
		p.UpdateParameters(params)
	}

	var changed []plan.Element
	if p.IsComplete() {
		changed = append(changed, p.Restart()...)
	}
	if p.Proceed() {
		changed = append(changed, p)
	}

	s.logger.Info().Str("plan", p.Name()).Int("parameters", len(params)).Msg("Received cmd: start")
	s.recordCommand("start", "ok")
	s.writeJSON(w, http.StatusOK, CommandResponse{
		Message:  "Received cmd: start",
		Elements: elementRefs(changed),
	})
}

// handleStop interrupts the plan and resets it back to PENDING.
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(planName(r))
	if !ok {
		s.recordCommand("stop", "not_found")
		s.writeError(w, http.StatusNotFound, "plan not found")
		return
	}

	p := m.Plan()
	var changed []plan.Element
	if p.Interrupt() {
		changed = append(changed, p)
	}
	changed = append(changed, p.Restart()...)

	s.logger.Info().Str("plan", p.Name()).Msg("Received cmd: stop")
	s.recordCommand("stop", "ok")
	s.writeJSON(w, http.StatusOK, CommandResponse{
		Message:  "Received cmd: stop",
		Elements: elementRefs(changed),
	})
}

// handleContinue proceeds the plan, or the phases matching the optional
// phase filter. Targets already complete or running are skipped; when every
// target is skipped the call is a no-op, reported as 208.
func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(planName(r))
	if !ok {
		s.recordCommand("continue", "not_found")
		s.writeError(w, http.StatusNotFound, "plan not found")
		return
	}
	p := m.Plan()

	var targets []plan.Element
	if filter := r.URL.Query().Get("phase"); filter != "" {
		phases := matchPhases(p, filter)
		if len(phases) == 0 {
			s.recordCommand("continue", "not_found")
			s.writeError(w, http.StatusNotFound, "phase not found")
			return
		}
		for _, phase := range phases {
			targets = append(targets, phase)
		}
	} else {
		targets = []plan.Element{p}
	}

	// Targets already complete or running have nothing to continue.
	var pending []plan.Element
	for _, target := range targets {
		status := target.Status()
		if status.IsComplete() || status.IsRunning() {
			continue
		}
		pending = append(pending, target)
	}
	if len(pending) == 0 {
		s.recordCommand("continue", "noop")
		s.writeJSON(w, http.StatusAlreadyReported, CommandResponse{Message: "already reported: continue"})
		return
	}

	for _, target := range pending {
		target.Proceed()
	}

	s.logger.Info().Str("plan", p.Name()).Msg("Received cmd: continue")
	s.recordCommand("continue", "ok")
	s.writeJSON(w, http.StatusOK, CommandResponse{
		Message:  "Received cmd: continue",
		Elements: elementRefs(pending),
	})
}

// handleInterrupt interrupts the plan, or the phases matching the optional
// phase filter. Targets already complete or interrupted are skipped; when
// every target is skipped the call is a no-op, reported as 208.
func (s *Server) handleInterrupt(w http.ResponseWriter, r *http.Request) {
	m, ok := s.manager(planName(r))
	if !ok {
		s.recordCommand("interrupt", "not_found")
		s.writeError(w, http.StatusNotFound, "plan not found")
		return
	}
	p := m.Plan()

	var targets []plan.Element
	if filter := r.URL.Query().Get("phase"); filter != "" {
		phases := matchPhases(p, filter)
		if len(phases) == 0 {
			s.recordCommand("interrupt", "not_found")
			s.writeError(w, http.StatusNotFound, "phase not found")
			return
		}
		for _, phase := range phases {
			targets = append(targets, phase)
		}
	} else {
		targets = []plan.Element{p}
	}

	// Targets already complete or interrupted are left untouched.
	var running []plan.Element
	for _, target := range targets {
		if target.Status().IsComplete() || target.IsInterrupted() {
			continue
		}
		running = append(running, target)
	}
	if len(running) == 0 {
		s.recordCommand("interrupt", "noop")
		s.writeJSON(w, http.StatusAlreadyReported, CommandResponse{Message: "already reported: interrupt"})
		return
	}

	for _, target := range running {
		target.Interrupt()
	}

	s.logger.Info().Str("plan", p.Name()).Msg("Received cmd: interrupt")
	s.recordCommand("interrupt", "ok")
	s.writeJSON(w, http.StatusOK, CommandResponse{
		Message:  "Received cmd: interrupt",
		Elements: elementRefs(running),
	})
}

// handleForceComplete forces the targeted elements to COMPLETE. A step
// filter requires a phase filter; targets already complete make the call a
// no-op, reported as 208.
func (s *Server) handleForceComplete(w http.ResponseWriter, r *http.Request) {
	s.handleTargetedCommand(w, r, "forceComplete", true,
		func(target plan.Element) []plan.Element { return target.ForceComplete() })
}

// handleRestart resets the targeted elements to PENDING and proceeds them.
// A step filter requires a phase filter. Restart always applies; there is no
// no-op form.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	s.handleTargetedCommand(w, r, "restart", false,
		func(target plan.Element) []plan.Element {
			changed := target.Restart()
			if target.Proceed() {
				changed = append(changed, target)
			}
			return changed
		})
}

// handleTargetedCommand implements the shared shape of forceComplete and
// restart: resolve the plan, the optional phase filter and the optional step
// filter (rejected without a phase), apply op to every target and report the
// union of elements changed.
func (s *Server) handleTargetedCommand(w http.ResponseWriter, r *http.Request, command string, noopWhenComplete bool, op func(plan.Element) []plan.Element) {
	phaseFilter := r.URL.Query().Get("phase")
	stepFilter := r.URL.Query().Get("step")

	m, ok := s.manager(planName(r))
	if !ok {
		s.recordCommand(command, "not_found")
		s.writeError(w, http.StatusNotFound, "plan not found")
		return
	}
	p := m.Plan()

	// A step filter without a phase filter is malformed.
	if stepFilter != "" && phaseFilter == "" {
		s.recordCommand(command, "bad_request")
		s.writeError(w, http.StatusBadRequest, "step filter requires a phase filter")
		return
	}

	var targets []plan.Element
	switch {
	case stepFilter != "":
		phases := matchPhases(p, phaseFilter)
		if len(phases) == 0 {
			s.recordCommand(command, "not_found")
			s.writeError(w, http.StatusNotFound, "phase not found")
			return
		}
		step, found := matchStep(phases, stepFilter)
		if !found {
			s.recordCommand(command, "not_found")
			s.writeError(w, http.StatusNotFound, "step not found")
			return
		}
		targets = append(targets, step)
	case phaseFilter != "":
		phases := matchPhases(p, phaseFilter)
		if len(phases) == 0 {
			s.recordCommand(command, "not_found")
			s.writeError(w, http.StatusNotFound, "phase not found")
			return
		}
		for _, phase := range phases {
			targets = append(targets, phase)
		}
	default:
		targets = []plan.Element{p}
	}

	if noopWhenComplete {
		noop := true
		for _, target := range targets {
			if !target.Status().IsComplete() {
				noop = false
				break
			}
		}
		if noop {
			s.recordCommand(command, "noop")
			s.writeJSON(w, http.StatusAlreadyReported, CommandResponse{Message: "already reported: " + command})
			return
		}
	}

	var changed []plan.Element
	for _, target := range targets {
		changed = append(changed, op(target)...)
	}

	s.logger.Info().Str("plan", p.Name()).Msg("Received cmd: " + command)
	s.recordCommand(command, "ok")
	s.writeJSON(w, http.StatusOK, CommandResponse{
		Message:  "Received cmd: " + command,
		Elements: elementRefs(changed),
	})
}

// decodeParameters reads the optional flat string-to-string parameter map
// from the request body. An empty body means no parameters.
func decodeParameters(r *http.Request) (map[string]string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, nil
	}
	var params map[string]string
	if err := json.Unmarshal(body, &params); err != nil {
		return nil, err
	}
	return params, nil
}
