package importer

import (
	"testing"

	"github.com/psycho-baller/audora/internal/errs"
	"github.com/psycho-baller/audora/internal/types"
)

func TestMapSpeakers_ChunkThenTurnOrder(t *testing.T) {
	results := []types.ChunkResult{
		{Transcript: []types.RawTurn{
			{Speaker: types.LabelS1, Text: "one"},
			{Speaker: types.LabelS2, Text: "two"},
		}},
		{Transcript: []types.RawTurn{
			{Speaker: types.LabelS2, Text: "three"},
			{Speaker: types.LabelS1, Text: "four"},
		}},
	}
	turns, err := mapSpeakers(results, "init", "part")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []types.TranscriptTurn{
		{UserID: "init", Text: "one"},
		{UserID: "part", Text: "two"},
		{UserID: "part", Text: "three"},
		{UserID: "init", Text: "four"},
	}
	if len(turns) != len(want) {
		t.Fatalf("want %d turns, got %d", len(want), len(turns))
	}
	for i := range want {
		if turns[i] != want[i] {
			t.Errorf("turn %d: want %+v, got %+v", i, want[i], turns[i])
		}
	}
}

func TestMapSpeakers_SoloRejectsParticipantLabel(t *testing.T) {
	results := []types.ChunkResult{{Transcript: []types.RawTurn{
		{Speaker: types.LabelS2, Text: "ghost"},
	}}}
	_, err := mapSpeakers(results, "init", "")
	if errs.CodeOf(err) != errs.CodeMappingError {
		t.Fatalf("expected MAPPING_ERROR, got %v", err)
	}
}

func TestMapSpeakers_UnknownLabelRejected(t *testing.T) {
	results := []types.ChunkResult{{Transcript: []types.RawTurn{
		{Speaker: "S3", Text: "???"},
	}}}
	_, err := mapSpeakers(results, "init", "part")
	if errs.CodeOf(err) != errs.CodeMappingError {
		t.Fatalf("expected MAPPING_ERROR, got %v", err)
	}
}

func TestResolveLabel_ClosedSet(t *testing.T) {
	if sp, ok := resolveLabel(types.LabelS1); !ok || sp != types.SpeakerInitiator {
		t.Error("S1 should resolve to initiator")
	}
	if sp, ok := resolveLabel(types.LabelS2); !ok || sp != types.SpeakerParticipant {
		t.Error("S2 should resolve to participant")
	}
	if _, ok := resolveLabel("s1"); ok {
		t.Error("labels are case sensitive")
	}
}
