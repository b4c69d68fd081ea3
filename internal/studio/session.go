package studio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"zenstudio/internal/assetcache"
	"zenstudio/internal/audiogen"
	"zenstudio/internal/config"
	"zenstudio/internal/ingest"
	"zenstudio/internal/lease"
	"zenstudio/internal/library"
	"zenstudio/internal/logging"
	"zenstudio/internal/navigation"
	"zenstudio/internal/persist"
	"zenstudio/internal/persist/postgres"
	"zenstudio/internal/persist/sqlite"
	"zenstudio/internal/rewrite"
	"zenstudio/internal/services/gemini"
	"zenstudio/internal/story"
)

// Option customizes Open.
type Option func(*options)

type options struct {
	store     persist.Store
	synth     audiogen.Synthesizer
	generator rewrite.TextGenerator
}

// WithStore uses store instead of opening the configured backend.
func WithStore(store persist.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithSynthesizer replaces the Gemini speech client.
func WithSynthesizer(s audiogen.Synthesizer) Option {
	return func(o *options) {
		o.synth = s
	}
}

// WithTextGenerator replaces the Gemini text client.
func WithTextGenerator(g rewrite.TextGenerator) Option {
	return func(o *options) {
		o.generator = g
	}
}

// Session is an open studio.
type Session struct {
	cfg    *config.Config
	logger *slog.Logger
	store  persist.Store

	graph    *story.Graph
	library  *library.Library
	leases   *lease.Table
	assets   *assetcache.Store
	gemini   *gemini.Client
	nav      *navigation.Engine
	audio    *audiogen.Pipeline
	rewriter *rewrite.Orchestrator
	ingestor *ingest.Ingestor

	mu         sync.Mutex
	theme      persist.Theme
	credential string
	saveErr    error
	saveMu     sync.Mutex
	seeded     bool
}

// OpenStore opens the backend selected by cfg.Storage.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (persist.Store, error) {
	switch cfg.Storage.Backend {
	case config.StoragePostgres:
		return postgres.New(ctx, cfg.Storage.PostgresDSN, logger)
	case config.StorageSQLite, "":
		return sqlite.Open(ctx, cfg.DatabasePath(), logger)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// Open loads persisted state, seeding the sample story on first run when
// configured, and wires every component.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("studio: config is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	store := o.store
	if store == nil {
		var err error
		store, err = OpenStore(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	s := &Session{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "studio"),
		store:   store,
		library: library.New(),
		leases:  lease.NewTable(),
		assets:  assetcache.NewStore(cfg.Paths.AssetDir, logger),
		theme:   persist.ThemeDark,
	}
	s.graph = story.New(story.WithDefaults(story.Defaults{
		Image:    cfg.Story.DefaultImage,
		Mood:     cfg.Story.DefaultMood,
		Duration: "0s",
		Global: story.GlobalConfig{
			NormalizationLUFS:  cfg.Story.NormalizationLUFS,
			IdleTimeoutSeconds: cfg.Story.IdleTimeoutSeconds,
		},
	}))

	if err := s.load(ctx); err != nil {
		_ = store.Close(ctx)
		return nil, err
	}

	s.gemini = gemini.NewClient(gemini.Config{
		BaseURL:        cfg.Gemini.BaseURL,
		TTSModel:       cfg.Gemini.TTSModel,
		RewriteModel:   cfg.Gemini.RewriteModel,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	})
	synth := o.synth
	if synth == nil {
		synth = s.gemini
	}
	generator := o.generator
	if generator == nil {
		generator = s.gemini
	}

	s.nav = navigation.NewEngine(s.graph, navigation.WithLogger(logger))
	s.audio = audiogen.New(s.graph, synth, s.assets,
		audiogen.WithLeases(s.leases),
		audiogen.WithCredential(s.Credential),
		audiogen.WithVoice(cfg.Gemini.Voice),
		audiogen.WithLogger(logger),
	)
	s.rewriter = rewrite.New(s.graph, generator,
		rewrite.WithLeases(s.leases),
		rewrite.WithCredential(s.Credential),
		rewrite.WithLogger(logger),
	)
	s.ingestor = ingest.New(s.graph, s.library, logger)

	s.graph.OnChange(func(story.Snapshot) { s.persist(context.Background()) })
	s.library.OnChange(func([]library.File) { s.persist(context.Background()) })

	if s.seeded {
		s.persist(ctx)
	}
	return s, nil
}

func (s *Session) load(ctx context.Context) error {
	state, ok, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if !ok {
		if s.cfg.Story.SeedSample {
			if err := s.graph.Restore(story.Sample(), story.SampleActiveID); err != nil {
				return fmt.Errorf("seed sample story: %w", err)
			}
			s.seeded = true
			s.logger.Info("seeded sample story")
		}
		return nil
	}
	if err := s.graph.Restore(state.Story, state.Active()); err != nil {
		return err
	}
	s.library.Restore(state.Library)
	s.theme = state.Theme
	s.credential = strings.TrimSpace(state.Credential)
	s.logger.Debug("loaded state",
		logging.Int("segments", len(state.Story.Segments)),
		logging.Int("library_files", len(state.Library)),
	)
	return nil
}

// State composes the persisted record from the live components.
func (s *Session) State() persist.State {
	snap := s.graph.Snapshot()
	s.mu.Lock()
	defer s.mu.Unlock()
	state := persist.State{
		Story:      snap.Story,
		Library:    s.library.List(),
		Theme:      s.theme,
		Credential: s.credential,
	}
	if snap.ActiveID != "" {
		active := snap.ActiveID
		state.ActiveSegmentID = &active
	}
	return state
}

// persist saves the latest state. Saves are serialized and each one reads
// state after taking saveMu, so the last write always carries the newest
// record.
func (s *Session) persist(ctx context.Context) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	err := s.store.Save(ctx, s.State())
	s.mu.Lock()
	s.saveErr = err
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("failed to persist state", logging.Error(err))
	}
}

// Flush saves the current state and returns the save error, if any.
func (s *Session) Flush(ctx context.Context) error {
	s.persist(ctx)
	return s.LastSaveError()
}

// LastSaveError returns the outcome of the most recent save.
func (s *Session) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveErr
}

// Close flushes and releases the store.
func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return multierr.Append(s.LastSaveError(), s.store.Close(ctx))
}

// Credential returns the API key used for outbound calls: the stored
// credential when set, otherwise the configured key.
func (s *Session) Credential() string {
	s.mu.Lock()
	stored := s.credential
	s.mu.Unlock()
	if stored != "" {
		return stored
	}
	return strings.TrimSpace(s.cfg.Gemini.APIKey)
}

// CredentialSource reports where Credential comes from.
func (s *Session) CredentialSource() string {
	s.mu.Lock()
	stored := s.credential
	s.mu.Unlock()
	switch {
	case stored != "":
		return "stored"
	case strings.TrimSpace(s.cfg.Gemini.APIKey) != "":
		return "config"
	default:
		return "none"
	}
}

// SetCredential stores key in the persisted record. An empty key clears it.
func (s *Session) SetCredential(ctx context.Context, key string) error {
	s.mu.Lock()
	s.credential = strings.TrimSpace(key)
	s.mu.Unlock()
	return s.Flush(ctx)
}

// Theme returns the stored theme.
func (s *Session) Theme() persist.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme
}

// SetTheme stores theme.
func (s *Session) SetTheme(ctx context.Context, theme persist.Theme) error {
	s.mu.Lock()
	s.theme = theme
	s.mu.Unlock()
	return s.Flush(ctx)
}

// ToggleTheme flips the theme and returns the new value.
func (s *Session) ToggleTheme(ctx context.Context) (persist.Theme, error) {
	s.mu.Lock()
	s.theme = s.theme.Toggle()
	theme := s.theme
	s.mu.Unlock()
	return theme, s.Flush(ctx)
}

// Reset replaces the story with an empty one, or the sample story when
// sample is true, and clears the library.
func (s *Session) Reset(ctx context.Context, sample bool) error {
	st := story.Empty(s.graph.Snapshot().Story.Global)
	active := ""
	if sample {
		st = story.Sample()
		active = story.SampleActiveID
	}
	s.library.Restore(nil)
	if err := s.graph.Replace(st, active); err != nil {
		return err
	}
	return s.LastSaveError()
}

// Config returns the session configuration.
func (s *Session) Config() *config.Config { return s.cfg }

// Graph returns the segment graph.
func (s *Session) Graph() *story.Graph { return s.graph }

// Library returns the upload library.
func (s *Session) Library() *library.Library { return s.library }

// Navigator returns the navigation engine.
func (s *Session) Navigator() *navigation.Engine { return s.nav }

// Audio returns the audio pipeline.
func (s *Session) Audio() *audiogen.Pipeline { return s.audio }

// Rewriter returns the rewrite orchestrator.
func (s *Session) Rewriter() *rewrite.Orchestrator { return s.rewriter }

// Ingestor returns the manifest ingestor.
func (s *Session) Ingestor() *ingest.Ingestor { return s.ingestor }

// Assets returns the blob store.
func (s *Session) Assets() *assetcache.Store { return s.assets }

// Leases returns the shared lease table.
func (s *Session) Leases() *lease.Table { return s.leases }

// Store returns the persistence backend.
func (s *Session) Store() persist.Store { return s.store }

// Gemini returns the service client used for health checks.
func (s *Session) Gemini() *gemini.Client { return s.gemini }
