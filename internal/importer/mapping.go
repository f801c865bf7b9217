package importer

import (
	"github.com/psycho-baller/audora/internal/errs"
	"github.com/psycho-baller/audora/internal/types"
)

// resolveLabel narrows a chunk-local speaker label to the closed Speaker
// set. The raw S1/S2 strings stop here.
func resolveLabel(label string) (types.Speaker, bool) {
	switch label {
	case types.LabelS1:
		return types.SpeakerInitiator, true
	case types.LabelS2:
		return types.SpeakerParticipant, true
	}
	return 0, false
}

// mapSpeakers resolves every turn of every chunk onto platform user ids,
// preserving chunk-then-turn order. The service's "first speaker" heuristic
// is trusted to hold across all chunks of one conversation: S1 is always the
// initiator, S2 always the participant. A participant turn in a solo
// conversation is a data inconsistency and is rejected rather than silently
// mis-attributed.
func mapSpeakers(results []types.ChunkResult, initiatorID, participantID string) ([]types.TranscriptTurn, error) {
	var turns []types.TranscriptTurn
	for ci, r := range results {
		for _, raw := range r.Transcript {
			sp, ok := resolveLabel(raw.Speaker)
			if !ok {
				return nil, errs.MappingError(raw.Speaker, ci+1)
			}
			var userID string
			switch sp {
			case types.SpeakerInitiator:
				userID = initiatorID
			case types.SpeakerParticipant:
				if participantID == "" {
					return nil, errs.MappingError(raw.Speaker, ci+1)
				}
				userID = participantID
			}
			turns = append(turns, types.TranscriptTurn{UserID: userID, Text: raw.Text})
		}
	}
	return turns, nil
}
