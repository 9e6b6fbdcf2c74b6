package store

import (
	"testing"

	settings "github.com/rotorz/tile-system-settings"
)

type paintQuality int

const (
	paintLow paintQuality = iota
	paintMedium
	paintHigh
)

var paintQualityValues = []paintQuality{paintLow, paintMedium, paintHigh}

func collectFeedback(events *[]settings.Feedback) settings.ManagerOption {
	return settings.WithFeedbackHook(settings.FeedbackHookFunc(func(event settings.Feedback) {
		*events = append(*events, event)
	}))
}

func TestSyncAdoptsFreshValueIntoLiveGroup(t *testing.T) {
	m := settings.NewManager()
	g := m.Group("general")
	volume, err := settings.Int(g, "volume", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := NewStore()
	doc := []byte(`{"general":{"volume":5}}`)

	saveNeeded, err := s.Sync(doc, m)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if !saveNeeded {
		t.Fatalf("expected first sync to request a save")
	}
	if got := volume.Value(); got != 5 {
		t.Fatalf("expected fresh value 5, got %d", got)
	}
	if volume.IsDirty() {
		t.Fatalf("expected cell to be clean after sync")
	}

	// An immediate re-sync of the same document finds everything agreeing.
	saveNeeded, err = s.Sync(doc, m)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if saveNeeded {
		t.Fatalf("expected re-sync to be a fixpoint")
	}
	if got := volume.Value(); got != 5 {
		t.Fatalf("expected value to stay 5, got %d", got)
	}
}

func TestSyncFreshValueWinsOverDirtyCell(t *testing.T) {
	m := settings.NewManager()
	g := m.Group("general")
	volume, err := settings.Int(g, "volume", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	volume.Set(3)

	s := NewStore()
	saveNeeded, err := s.Sync([]byte(`{"general":{"volume":5}}`), m)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if !saveNeeded {
		t.Fatalf("expected divergence to request a save")
	}
	if got := volume.Value(); got != 5 {
		t.Fatalf("expected freshly read value to win, got %d", got)
	}
	if volume.IsDirty() {
		t.Fatalf("expected cell to be clean after adopting fresh value")
	}
}

func TestSyncSeedsGroupsWithoutLiveCounterpart(t *testing.T) {
	s := NewStore()

	saveNeeded, err := s.Sync([]byte(`{"brushes":{"size":4}}`), nil)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if saveNeeded {
		t.Fatalf("expected no save for untouched data")
	}

	rec, ok := s.Find("brushes")
	if !ok {
		t.Fatalf("expected seeded record for discovered group")
	}
	raw, ok := rec.Raw("size")
	if !ok || string(raw) != "4" {
		t.Fatalf("expected raw value 4, got %s", raw)
	}
}

func TestSyncLeavesUninstantiatedGroupsAlone(t *testing.T) {
	m := settings.NewManager()
	g := m.Group("general")
	if _, err := settings.Int(g, "volume", 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := NewStore()
	doc := []byte(`{"general":{"volume":10},"brushes":{"size":4}}`)
	saveNeeded, err := s.Sync(doc, m)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if saveNeeded {
		t.Fatalf("expected agreement everywhere, got save request")
	}

	rec, ok := s.Find("brushes")
	if !ok {
		t.Fatalf("expected record for uninstantiated group")
	}
	if raw, _ := rec.Raw("size"); string(raw) != "4" {
		t.Fatalf("expected untouched raw value, got %s", raw)
	}
}

func TestSyncDocumentAuthoritativeForUnreferencedKeys(t *testing.T) {
	s := NewStore()

	if _, err := s.Sync([]byte(`{"general":{"stale":1,"volume":5}}`), nil); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	rec, _ := s.Find("general")
	if rec.Len() != 2 {
		t.Fatalf("expected both keys adopted, got %v", rec.Keys())
	}

	// The key vanished from disk: it vanishes from the record too.
	if _, err := s.Sync([]byte(`{"general":{"volume":5,"added":2}}`), nil); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if _, ok := rec.Raw("stale"); ok {
		t.Fatalf("expected vanished key to be dropped")
	}
	if raw, ok := rec.Raw("added"); !ok || string(raw) != "2" {
		t.Fatalf("expected new key to be adopted, got %s", raw)
	}
}

func TestSyncCorruptValueRestoresDefaultWithOneWarning(t *testing.T) {
	var events []settings.Feedback
	m := settings.NewManager(collectFeedback(&events))
	g := m.Group("render")
	quality, err := settings.Enum(g, "quality", paintMedium, paintQualityValues)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := NewStore()
	saveNeeded, err := s.Sync([]byte(`{"render":{"quality":7}}`), m)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if !saveNeeded {
		t.Fatalf("expected corrupt value to request a corrective save")
	}
	if got := quality.Value(); got != paintMedium {
		t.Fatalf("expected default restored, got %d", got)
	}
	if len(events) != 1 || events[0].Severity != settings.SeverityWarning {
		t.Fatalf("expected exactly one warning, got %v", events)
	}

	// The record now carries the canonical default, so a corrective save
	// writes 1, not the corrupt 7.
	rec, _ := s.Find("render")
	if raw, _ := rec.Raw("quality"); string(raw) != "1" {
		t.Fatalf("expected canonical default in record, got %s", raw)
	}
}

func TestSyncToleratesForeignTopLevelMembers(t *testing.T) {
	s := NewStore()

	saveNeeded, err := s.Sync([]byte(`{"version":3,"general":{"volume":5}}`), nil)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if saveNeeded {
		t.Fatalf("expected no save request")
	}
	if _, ok := s.Find("version"); ok {
		t.Fatalf("expected non-object member to be ignored")
	}
	if _, ok := s.Find("general"); !ok {
		t.Fatalf("expected object member to seed a record")
	}
}

func TestSyncRejectsMalformedDocuments(t *testing.T) {
	s := NewStore()

	if _, err := s.Sync([]byte(`{"general":`), nil); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
	if _, err := s.Sync([]byte(`[1,2,3]`), nil); err == nil {
		t.Fatalf("expected error for non-object root")
	}

	// An empty document is fine and changes nothing.
	saveNeeded, err := s.Sync(nil, nil)
	if err != nil || saveNeeded {
		t.Fatalf("expected empty document to be a no-op, got %v, %v", saveNeeded, err)
	}
}

func TestSyncNormalizesNonCanonicalFormatting(t *testing.T) {
	m := settings.NewManager()
	g := m.Group("general")
	label, err := settings.String(g, "label", "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := NewStore()
	// Same string value, differently encoded on disk.
	nonCanonical := []byte(`{"general":{"label":"\u0078"}}`)
	saveNeeded, err := s.Sync(nonCanonical, m)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if !saveNeeded {
		t.Fatalf("expected representation divergence to request a save")
	}
	if got := label.Value(); got != "x" {
		t.Fatalf("unexpected value %q", got)
	}

	rec, _ := s.Find("general")
	if raw, _ := rec.Raw("label"); string(raw) != `"x"` {
		t.Fatalf("expected canonical encoding in record, got %s", raw)
	}

	// The non-canonical document keeps requesting a save until it is
	// actually rewritten.
	saveNeeded, err = s.Sync(nonCanonical, m)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if !saveNeeded {
		t.Fatalf("expected non-canonical document to keep requesting a save")
	}

	// A canonical document is a fixpoint.
	saveNeeded, err = s.Sync([]byte(`{"general":{"label":"x"}}`), m)
	if err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}
	if saveNeeded {
		t.Fatalf("expected canonical document to be a fixpoint")
	}
}
