package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ServiceSpec is the root of the YAML service definition.
type ServiceSpec struct {
	// Name is the service name, used as the framework name and the secret
	// namespace.
	Name string `yaml:"name" validate:"required"`

	// Pods defines the pod types the service runs.
	Pods []PodSpec `yaml:"pods" validate:"required,min=1,dive"`

	// Plans defines the named plans available for the service. A plan named
	// "deploy" must be present.
	Plans []PlanSpec `yaml:"plans" validate:"required,min=1,dive"`

	// TLS optionally enables TLS artifact provisioning for the service.
	TLS *TLSSpec `yaml:"tls,omitempty"`
}

// PodSpec defines one pod type and how many instances of it to run.
type PodSpec struct {
	Name    string            `yaml:"name" validate:"required"`
	Count   int               `yaml:"count" validate:"required,min=1"`
	Command string            `yaml:"command" validate:"required"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// PlanSpec is a declarative plan definition: an ordered list of phases with
// a strategy governing phase progression.
type PlanSpec struct {
	Name     string      `yaml:"name" validate:"required"`
	Strategy string      `yaml:"strategy,omitempty" validate:"omitempty,oneof=serial parallel"`
	Phases   []PhaseSpec `yaml:"phases" validate:"required,min=1,dive"`
}

// PhaseSpec is one phase of a plan: it targets a pod type and names the
// strategy governing its step progression.
type PhaseSpec struct {
	Name     string `yaml:"name" validate:"required"`
	Strategy string `yaml:"strategy,omitempty" validate:"omitempty,oneof=serial parallel"`
	Pod      string `yaml:"pod" validate:"required"`
}

// TLSSpec configures TLS artifact storage for the service.
type TLSSpec struct {
	Namespace string `yaml:"namespace" validate:"required"`
}

// Validate checks struct-level constraints plus the cross references the
// tags cannot express: unique pod and plan names, phase pod references, and
// the presence of a deploy plan.
func (s *ServiceSpec) Validate() error {
	if err := validator.New().Struct(s); err != nil {
		return fmt.Errorf("service spec validation failed: %w", err)
	}

	pods := make(map[string]struct{}, len(s.Pods))
	for _, pod := range s.Pods {
		if _, ok := pods[pod.Name]; ok {
			return fmt.Errorf("duplicate pod name %q", pod.Name)
		}
		pods[pod.Name] = struct{}{}
	}

	plans := make(map[string]struct{}, len(s.Plans))
	hasDeploy := false
	for _, p := range s.Plans {
		if _, ok := plans[p.Name]; ok {
			return fmt.Errorf("duplicate plan name %q", p.Name)
		}
		plans[p.Name] = struct{}{}
		if p.Name == "deploy" {
			hasDeploy = true
		}
		for _, phase := range p.Phases {
			if _, ok := pods[phase.Pod]; !ok {
				return fmt.Errorf("plan %q phase %q references unknown pod %q", p.Name, phase.Name, phase.Pod)
			}
		}
	}
	if !hasDeploy {
		return fmt.Errorf("service spec must define a %q plan", "deploy")
	}

	return nil
}

// Pod returns the pod spec with the given name.
func (s *ServiceSpec) Pod(name string) (PodSpec, bool) {
	for _, pod := range s.Pods {
		if pod.Name == name {
			return pod, true
		}
	}
	return PodSpec{}, false
}

// Plan returns the plan spec with the given name.
func (s *ServiceSpec) Plan(name string) (PlanSpec, bool) {
	for _, p := range s.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return PlanSpec{}, false
}
