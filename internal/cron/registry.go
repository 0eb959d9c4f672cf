package cron

import "context"

// Job is a unit of scheduled work executed by the worker loop.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds the jobs the worker runs each tick. Registration order is
// execution order, and a job name is only registered once.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry builds a registry from the given jobs, skipping nils.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{names: make(map[string]struct{})}
	for _, job := range jobs {
		r.Register(job)
	}
	return r
}

// Register appends a job unless one with the same name is already present.
func (r *Registry) Register(job Job) {
	if job == nil {
		return
	}
	if r.names == nil {
		r.names = make(map[string]struct{})
	}
	if _, exists := r.names[job.Name()]; exists {
		return
	}
	r.names[job.Name()] = struct{}{}
	r.jobs = append(r.jobs, job)
}

// Jobs returns a copy of the registered jobs in registration order.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}
