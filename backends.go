package agentlab

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/agentlab/artifact"
	"github.com/hupe1980/agentlab/config"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/docstore"
	"github.com/hupe1980/agentlab/docstore/firestore"
	"github.com/hupe1980/agentlab/docstore/sqlite"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/objectstore"
	"github.com/hupe1980/agentlab/objectstore/gcs"
	"github.com/hupe1980/agentlab/objectstore/s3"
	"github.com/hupe1980/agentlab/vertex"
)

// NewLogger builds the structured logger described by cfg, writing to w.
func NewLogger(cfg config.LoggingConfig, w io.Writer) (*logging.AgentLabLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultLoggerConfig()
	lc.Level = level
	lc.Format = cfg.Format
	lc.AddSource = cfg.AddSource
	lc.Output = w
	if lc.Output == nil {
		lc.Output = os.Stderr
	}

	return logging.NewLogger(lc), nil
}

// NewFromConfig opens the backends selected by cfg and creates an AgentLab
// using them. optFns run after the configured backends are set and may
// override any of them. The caller must Close the returned instance.
func NewFromConfig(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*AgentLab, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	var (
		closers []io.Closer
		opts    []func(o *Options)
	)

	fail := func(err error) (*AgentLab, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
		return nil, err
	}

	logger, err := NewLogger(cfg.Logging, nil)
	if err != nil {
		return nil, err
	}

	docs, closer, err := openDocumentStore(ctx, cfg.DocStore, logger.WithComponent("docstore"))
	if err != nil {
		return fail(err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	objects, objClosers, err := openObjectStore(ctx, cfg.ObjectStore)
	closers = append(closers, objClosers...)
	if err != nil {
		return fail(err)
	}

	var artifacts core.ArtifactStore = artifact.NewInMemoryStore()
	if cfg.Artifacts.Backend == config.ArtifactsObject {
		as, err := artifact.NewObjectStore(objects, cfg.Artifacts.BaseURI)
		if err != nil {
			return fail(err)
		}
		artifacts = as
	}

	var engine *vertex.Client
	if cfg.Vertex.Enabled {
		engine, err = vertex.New(ctx, func(o *vertex.Options) {
			o.Timeout = cfg.Vertex.Timeout
			o.Logger = logger.WithComponent("vertex")
		})
		if err != nil {
			return fail(err)
		}
	}

	opts = append(opts, func(o *Options) {
		o.AppName = cfg.AppName
		o.DocumentStore = docs
		o.ArtifactStore = artifacts
		o.ObjectStore = objects
		if engine != nil {
			o.EngineClient = engine
		}
		o.A2AUnaryTimeout = cfg.A2A.UnaryTimeout
		o.A2AStreamTimeout = cfg.A2A.StreamTimeout
		o.HistoryMaxDepth = cfg.History.MaxDepth
		o.EnableStreaming = cfg.Local.Streaming
		if cfg.Local.MaxModelCalls > 0 {
			o.MaxModelCalls = cfg.Local.MaxModelCalls
		}
		o.Logger = logger
	})
	opts = append(opts, optFns...)

	lab := New(opts...)
	lab.closers = closers

	logger.Info("AgentLab initialized",
		"app", cfg.AppName,
		"docstore", cfg.DocStore.Backend,
		"artifacts", cfg.Artifacts.Backend,
		"gcs", cfg.ObjectStore.GCS.Enabled,
		"s3", cfg.ObjectStore.S3.Enabled,
		"vertex", cfg.Vertex.Enabled,
	)

	return lab, nil
}

func openDocumentStore(ctx context.Context, cfg config.DocStoreConfig, logger logging.Logger) (core.DocumentStore, io.Closer, error) {
	switch cfg.Backend {
	case config.DocStoreFirestore:
		s, err := firestore.New(ctx, cfg.ProjectID, func(o *firestore.Options) {
			o.DatabaseID = cfg.DatabaseID
			o.Logger = logger
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	case config.DocStoreSQLite:
		s, err := sqlite.New(cfg.Path, func(o *sqlite.Options) { o.Logger = logger })
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	default:
		return docstore.NewMemoryStore(), nil, nil
	}
}

// openObjectStore routes gs:// and s3:// URIs to the enabled clients. With no
// client enabled an in-memory store serves every URI.
func openObjectStore(ctx context.Context, cfg config.ObjectStoreConfig) (core.ObjectStore, []io.Closer, error) {
	if !cfg.GCS.Enabled && !cfg.S3.Enabled {
		return objectstore.NewMemoryStore(), nil, nil
	}

	var closers []io.Closer
	mux := objectstore.NewMux()

	if cfg.GCS.Enabled {
		g, err := gcs.New(ctx)
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, g)
		mux.Handle(objectstore.SchemeGCS, g)
	}

	if cfg.S3.Enabled {
		s, err := s3.New(ctx, func(o *s3.Options) {
			o.Region = cfg.S3.Region
			o.Endpoint = cfg.S3.Endpoint
			o.UsePathStyle = cfg.S3.UsePathStyle
		})
		if err != nil {
			return nil, closers, err
		}
		mux.Handle(objectstore.SchemeS3, s)
	}

	return mux, closers, nil
}
