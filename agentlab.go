// Package agentlab provides a high-level façade over the task layer of a
// multi-agent chat backend. Given a stored conversation and a target
// participant, an AgentLab reconstructs the history, assembles the prompt,
// runs the participant on the matching backend and streams the resulting
// events into the document store.
//
// Most applications interact with this package by:
//  1. Creating an AgentLab via New() (optionally overriding the default
//     in-memory stores) or NewFromConfig()
//  2. Executing task requests with Execute
//  3. Releasing backend clients with Close
//
// All defaults are safe for local development and testing. Production
// deployments supply a durable document store, object storage and a
// structured logger, usually through NewFromConfig.
package agentlab

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/hupe1980/agentlab/a2a"
	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/artifact"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/docstore"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/objectstore"
	"github.com/hupe1980/agentlab/strategy"
	"github.com/hupe1980/agentlab/task"
)

// Options configures the AgentLab instance.
type Options struct {
	// AppName scopes artifact keys.
	AppName string

	// Stores (defaults to in-memory implementations if not provided)
	DocumentStore core.DocumentStore
	ArtifactStore core.ArtifactStore
	ObjectStore   core.ObjectStore

	// EngineClient talks to Vertex AI Agent Engine. Without it deployed
	// agents cannot be executed.
	EngineClient strategy.EngineClient

	// HTTPClient is used for A2A calls.
	HTTPClient       *http.Client
	A2AUnaryTimeout  time.Duration
	A2AStreamTimeout time.Duration

	// HistoryMaxDepth bounds history reconstruction.
	HistoryMaxDepth int

	// Models overrides model adapter selection for local runs.
	Models agent.ModelFactory
	// EnableStreaming requests partial model responses in local runs.
	EnableStreaming bool
	MaxModelCalls   int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// AgentLab is the high-level façade aggregating the stores and strategies.
type AgentLab struct {
	opts         Options
	orchestrator *task.Orchestrator
	closers      []io.Closer
}

// New creates a new AgentLab instance with optional overrides. Any unset store
// is initialized with an in-memory implementation.
func New(optFns ...func(o *Options)) *AgentLab {
	opts := Options{
		AppName:         task.DefaultAppName,
		DocumentStore:   docstore.NewMemoryStore(),
		ArtifactStore:   artifact.NewInMemoryStore(),
		ObjectStore:     objectstore.NewMemoryStore(),
		HTTPClient:      http.DefaultClient,
		A2AUnaryTimeout: a2a.DefaultUnaryTimeout,
		MaxModelCalls:   strategy.DefaultMaxModelCalls,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	logger := logging.OrNoOp(opts.Logger)

	o := task.New(opts.DocumentStore, opts.ArtifactStore, opts.ObjectStore, func(o *task.Options) {
		o.AppName = opts.AppName
		o.Logger = logger
		o.HistoryMaxDepth = opts.HistoryMaxDepth
		o.Local = strategy.NewLocal(opts.DocumentStore, func(lo *strategy.LocalOptions) {
			lo.Logger = logger
			lo.Models = opts.Models
			lo.EnableStreaming = opts.EnableStreaming
			lo.MaxModelCalls = opts.MaxModelCalls
		})
		o.Remote = strategy.NewRemote(func(ro *strategy.RemoteOptions) {
			ro.HTTPClient = opts.HTTPClient
			ro.UnaryTimeout = opts.A2AUnaryTimeout
			ro.StreamTimeout = opts.A2AStreamTimeout
			ro.Logger = logger
		})
		if opts.EngineClient != nil {
			o.Deployed = strategy.NewDeployed(opts.EngineClient, func(do *strategy.DeployedOptions) { do.Logger = logger })
		}
	})

	return &AgentLab{opts: opts, orchestrator: o}
}

// Execute runs one task. The outcome is recorded on the assistant message;
// the returned error reports failures that escaped the pipeline.
func (l *AgentLab) Execute(ctx context.Context, req task.Request) error {
	return l.orchestrator.Execute(ctx, req)
}

// DocumentStore returns the store tasks read from and write to.
func (l *AgentLab) DocumentStore() core.DocumentStore { return l.opts.DocumentStore }

// Close releases the backend clients opened by NewFromConfig.
func (l *AgentLab) Close() error {
	var errs []error
	for i := len(l.closers) - 1; i >= 0; i-- {
		if err := l.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	l.closers = nil
	return errors.Join(errs...)
}
