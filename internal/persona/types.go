package persona

import (
	"bytes"
	"encoding/json"
	"reflect"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	// DefaultStorePath is where personas are kept when no path is configured
	DefaultStorePath = "data/personas.json"

	// DefaultVoiceID is the ElevenLabs voice used when a persona is created without one
	DefaultVoiceID = "HAIQu18Se8Zljrot4frx"

	// DefaultModelID is the fine-tuned chat model used when a persona is created without one
	DefaultModelID = "ft:gpt-4o-mini-2024-07-18:session12::BdvAqZdI"

	// File permissions
	DirPermission  = 0755 // Directory permission (rwxr-xr-x)
	FilePermission = 0644 // File permission (rw-r--r--)
)

// Record member names
const (
	fieldName             = "name"
	fieldVoiceID          = "voice_id"
	fieldFineTunedModelID = "fine_tuned_model_id"
	fieldURL              = "url"
	fieldPersonaData      = "persona_data"
	fieldFewShotExamples  = "few_shot_examples"
)

// Trait keys read by prompt rendering
const (
	TraitAgeGroup          = "age_group"
	TraitGender            = "gender"
	TraitOccupation        = "occupation"
	TraitPersonalityTraits = "personality_traits"
	TraitSpeechPatterns    = "speech_patterns"
	TraitTone              = "tone"
	TraitSpeakingStyle     = "speaking_style"
	TraitPersonality       = "personality"
	TraitCharacteristics   = "characteristics"
)

// Persona represents a single persona record of the store file.
//
// A record read from disk remembers every member it had. Members that the
// typed fields cannot hold (unknown keys, unexpected types) are written back
// unchanged on save; a typed field is written only once it has been modified.
type Persona struct {
	Name             string           `json:"name"`
	VoiceID          string           `json:"voice_id"`
	FineTunedModelID string           `json:"fine_tuned_model_id"`
	URL              string           `json:"url"`
	PersonaData      Traits           `json:"persona_data"`
	FewShotExamples  []FewShotExample `json:"few_shot_examples"`

	// source is set for records decoded from JSON objects and never mutated
	source *source

	// raw holds a record that is not a JSON object
	raw json.RawMessage
}

type source struct {
	members *orderedmap.OrderedMap[string, json.RawMessage]
	decoded Persona
}

// Traits is the persona_data object as stored. Values keep their JSON
// types: strings, json.Number, bool, nil, []any and map[string]any.
type Traits map[string]any

// Text returns a trait as text. Strings are returned as they are, other
// values are JSON encoded. A missing or null trait reports false.
func (t Traits) Text(key string) (string, bool) {
	v, ok := t[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// List returns a list trait. A single string counts as a one item list.
func (t Traits) List(key string) []string {
	switch v := t[key].(type) {
	case string:
		return []string{v}
	case []string:
		return append([]string{}, v...)
	case []any:
		items := make([]string, 0, len(v))
		for i := range v {
			if s, ok := (Traits{"item": v[i]}).Text("item"); ok {
				items = append(items, s)
			}
		}
		return items
	}
	return nil
}

// FewShotExample is a sample exchange showing the persona's speaking style
type FewShotExample struct {
	User      string `json:"user"`
	Assistant string `json:"assistant"`
}

// CreateRequest holds the caller-supplied fields for CreateFromURL
type CreateRequest struct {
	Name    string
	URL     string
	VoiceID string // optional, DefaultVoiceID when empty
	ModelID string // optional, DefaultModelID when empty
}

// MarshalJSON writes the record back with every member it was read with.
// Records that were never read from JSON get the full field set.
func (p Persona) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}

	out := orderedmap.New[string, any]()
	if p.source != nil {
		for pair := p.source.members.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, pair.Value)
		}
	}

	personaData := p.PersonaData
	if personaData == nil {
		personaData = Traits{}
	}
	fewShot := p.FewShotExamples
	if fewShot == nil {
		fewShot = []FewShotExample{}
	}

	fields := []struct {
		key       string
		value     any
		unchanged bool
	}{
		{fieldName, p.Name, p.source != nil && p.Name == p.source.decoded.Name},
		{fieldVoiceID, p.VoiceID, p.source != nil && p.VoiceID == p.source.decoded.VoiceID},
		{fieldFineTunedModelID, p.FineTunedModelID, p.source != nil && p.FineTunedModelID == p.source.decoded.FineTunedModelID},
		{fieldURL, p.URL, p.source != nil && p.URL == p.source.decoded.URL},
		{fieldPersonaData, personaData, p.source != nil && reflect.DeepEqual(p.PersonaData, p.source.decoded.PersonaData)},
		{fieldFewShotExamples, fewShot, p.source != nil && reflect.DeepEqual(p.FewShotExamples, p.source.decoded.FewShotExamples)},
	}
	for _, f := range fields {
		if f.unchanged {
			continue
		}
		out.Set(f.key, f.value)
	}

	return json.Marshal(out)
}

// UnmarshalJSON never fails. Each known member is decoded on its own, so a
// member with an unexpected type leaves only that field empty.
func (p *Persona) UnmarshalJSON(data []byte) error {
	members := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(data, members); err != nil {
		*p = Persona{raw: append(json.RawMessage(nil), data...)}
		return nil
	}

	var decoded Persona
	decoded.Name = decodeString(members, fieldName)
	decoded.VoiceID = decodeString(members, fieldVoiceID)
	decoded.FineTunedModelID = decodeString(members, fieldFineTunedModelID)
	decoded.URL = decodeString(members, fieldURL)
	if raw, ok := members.Get(fieldPersonaData); ok {
		decoded.PersonaData = decodeTraits(raw)
	}
	if raw, ok := members.Get(fieldFewShotExamples); ok {
		decoded.FewShotExamples = decodeExamples(raw)
	}

	*p = *decoded.Clone()
	p.source = &source{members: members, decoded: decoded}
	return nil
}

func decodeString(members *orderedmap.OrderedMap[string, json.RawMessage], key string) string {
	raw, ok := members.Get(key)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// decodeTraits returns nil unless raw is a JSON object
func decodeTraits(raw json.RawMessage) Traits {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var traits map[string]any
	if err := dec.Decode(&traits); err != nil || traits == nil {
		return nil
	}
	return Traits(traits)
}

// decodeExamples keeps the user and assistant text of every object element
func decodeExamples(raw json.RawMessage) []FewShotExample {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil
	}

	examples := make([]FewShotExample, 0, len(items))
	for _, item := range items {
		members := orderedmap.New[string, json.RawMessage]()
		if err := json.Unmarshal(item, members); err != nil {
			continue
		}
		examples = append(examples, FewShotExample{
			User:      decodeString(members, "user"),
			Assistant: decodeString(members, "assistant"),
		})
	}
	return examples
}

// Clone returns a deep copy of the persona
func (p *Persona) Clone() *Persona {
	c := *p
	if p.PersonaData != nil {
		c.PersonaData = cloneValue(map[string]any(p.PersonaData)).(map[string]any)
	}
	if p.FewShotExamples != nil {
		c.FewShotExamples = append([]FewShotExample{}, p.FewShotExamples...)
	}
	if p.raw != nil {
		c.raw = append(json.RawMessage(nil), p.raw...)
	}
	return &c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, item := range v {
			m[k] = cloneValue(item)
		}
		return m
	case Traits:
		return Traits(cloneValue(map[string]any(v)).(map[string]any))
	case []any:
		s := make([]any, len(v))
		for i, item := range v {
			s[i] = cloneValue(item)
		}
		return s
	case []string:
		return append([]string{}, v...)
	default:
		return v
	}
}
