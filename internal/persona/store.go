package persona

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/daikw/vchat/internal/llm"
	"github.com/rs/zerolog/log"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// DefaultAnalysisModel is the model used to extract persona traits from a web page
const DefaultAnalysisModel = "gpt-4o-mini"

// Store owns the persona collection backed by a single JSON file and the
// currently selected persona. It is not safe for concurrent use.
type Store struct {
	path          string
	personas      *orderedmap.OrderedMap[string, *Persona]
	current       string
	selected      bool
	fetcher       Fetcher
	completer     llm.Completer
	analysisModel string
}

// Option configures a Store
type Option func(*Store)

// WithFetcher sets the web page fetcher used by CreateFromURL
func WithFetcher(f Fetcher) Option {
	return func(s *Store) {
		s.fetcher = f
	}
}

// WithCompleter sets the language model used by CreateFromURL
func WithCompleter(c llm.Completer) Option {
	return func(s *Store) {
		s.completer = c
	}
}

// WithAnalysisModel overrides the model used for persona extraction
func WithAnalysisModel(model string) Option {
	return func(s *Store) {
		if model != "" {
			s.analysisModel = model
		}
	}
}

// NewStore creates a store for the given file and loads it
func NewStore(path string, opts ...Option) *Store {
	if path == "" {
		path = DefaultStorePath
	}

	s := &Store{
		path:          path,
		personas:      orderedmap.New[string, *Persona](),
		fetcher:       NewHTTPFetcher(),
		analysisModel: DefaultAnalysisModel,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Load()
	return s
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory personas with the file contents.
// A missing or malformed file leaves the store empty; neither is an error.
func (s *Store) Load() {
	s.personas = orderedmap.New[string, *Persona]()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn().Str("path", s.path).Msg("Persona store file not found")
			return
		}
		log.Error().Err(err).Str("path", s.path).Msg("Failed to read persona store")
		return
	}

	loaded := orderedmap.New[string, *Persona]()
	if err := json.Unmarshal(data, loaded); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to parse persona store")
		return
	}

	for pair := loaded.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value == nil {
			pair.Value = &Persona{raw: json.RawMessage("null")}
		}
	}

	s.personas = loaded
	log.Debug().Str("path", s.path).Int("count", loaded.Len()).Msg("Loaded personas")
}

// Save writes every persona to the backing file, replacing its contents.
// Failures are logged and otherwise ignored.
func (s *Store) Save() {
	if err := s.save(); err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("Failed to save persona store")
		return
	}
	log.Debug().Str("path", s.path).Int("count", s.personas.Len()).Msg("Saved personas")
}

func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, DirPermission); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.personas); err != nil {
		return err
	}

	return os.WriteFile(s.path, bytes.TrimRight(buf.Bytes(), "\n"), FilePermission)
}

// Names returns the persona names in insertion order
func (s *Store) Names() []string {
	names := make([]string, 0, s.personas.Len())
	for pair := s.personas.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Get returns a copy of the named persona
func (s *Store) Get(name string) (*Persona, bool) {
	p, ok := s.personas.Get(name)
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Put inserts or replaces a persona under its name
func (s *Store) Put(p *Persona) {
	s.personas.Set(p.Name, p.Clone())
}

// Select makes the named persona current. An unknown name leaves the
// selection unchanged and returns false.
func (s *Store) Select(name string) bool {
	if _, ok := s.personas.Get(name); !ok {
		log.Debug().Str("persona", name).Msg("Persona not found")
		return false
	}
	s.current = name
	s.selected = true
	log.Debug().Str("persona", name).Msg("Selected persona")
	return true
}

// CurrentName returns the selected persona name
func (s *Store) CurrentName() (string, bool) {
	if s.currentPersona() == nil {
		return "", false
	}
	return s.current, true
}

// Current returns a copy of the selected persona, or nil
func (s *Store) Current() *Persona {
	p := s.currentPersona()
	if p == nil {
		return nil
	}
	return p.Clone()
}

func (s *Store) currentPersona() *Persona {
	if !s.selected {
		return nil
	}
	p, ok := s.personas.Get(s.current)
	if !ok {
		return nil
	}
	return p
}

// VoiceID returns the selected persona's voice id
func (s *Store) VoiceID() (string, bool) {
	p := s.currentPersona()
	if p == nil {
		return "", false
	}
	return p.VoiceID, true
}

// ModelID returns the selected persona's fine-tuned model id
func (s *Store) ModelID() (string, bool) {
	p := s.currentPersona()
	if p == nil {
		return "", false
	}
	return p.FineTunedModelID, true
}

// SourceURL returns the page the selected persona was created from
func (s *Store) SourceURL() (string, bool) {
	p := s.currentPersona()
	if p == nil {
		return "", false
	}
	return p.URL, true
}

// FewShotExamples returns the selected persona's example dialogue in order.
// The result is empty when nothing is selected.
func (s *Store) FewShotExamples() []FewShotExample {
	p := s.currentPersona()
	if p == nil || len(p.FewShotExamples) == 0 {
		return []FewShotExample{}
	}
	return append([]FewShotExample{}, p.FewShotExamples...)
}

// SystemPrompt renders the system prompt for the selected persona,
// or returns an empty string when nothing is selected
func (s *Store) SystemPrompt() string {
	p := s.currentPersona()
	if p == nil {
		return ""
	}
	return RenderSystemPrompt(p)
}
