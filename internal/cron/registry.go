package cron

import "context"

// Job represents a scheduled task that runs inside the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Func adapts a plain function into a Job.
func Func(name string, fn func(ctx context.Context) error) Job {
	return funcJob{name: name, fn: fn}
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) error
}

func (f funcJob) Name() string                  { return f.name }
func (f funcJob) Run(ctx context.Context) error { return f.fn(ctx) }

// Entry pairs a job with its cron expression.
type Entry struct {
	Spec string
	Job  Job
}

// Registry tracks registered cron jobs.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry preloaded with the provided entries.
func NewRegistry(entries ...Entry) *Registry {
	registry := &Registry{}
	for _, entry := range entries {
		registry.Register(entry.Spec, entry.Job)
	}
	return registry
}

// Register adds a job to the registry. Entries without a job or spec are ignored.
func (r *Registry) Register(spec string, job Job) {
	if job == nil || spec == "" {
		return
	}
	r.entries = append(r.entries, Entry{Spec: spec, Job: job})
}

// Entries returns the registered entries in the order they were added.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Lookup finds a job by name.
func (r *Registry) Lookup(name string) (Job, bool) {
	for _, entry := range r.entries {
		if entry.Job.Name() == name {
			return entry.Job, true
		}
	}
	return nil, false
}
