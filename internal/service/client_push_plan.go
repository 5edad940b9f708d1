package service

import (
	"slices"
	"strconv"

	"github.com/mars-alien/NoteTakingApp/models"
)

// DeleteOp is a single remote delete together with every queue entry it
// settles.
type DeleteOp struct {
	LocalID  string
	RemoteID string
	EntryIDs []int64
}

// UpsertOp is the collapsed create or update of one note. Payload carries the
// content of the most recently enqueued entry.
type UpsertOp struct {
	LocalID  string
	RemoteID string
	Payload  models.MutationPayload
	EntryIDs []int64
}

// NotePayload converts the op to its wire form.
func (op UpsertOp) NotePayload() models.NotePayload {
	return models.NotePayload{
		ID:           op.RemoteID,
		ClientToken:  op.Payload.ClientToken,
		Title:        op.Payload.Title,
		Content:      op.Payload.Content,
		LastModified: op.Payload.LastModified,
	}
}

// PushPlan is what one sync cycle transmits. Discard lists entries that are
// removed without any transmission.
type PushPlan struct {
	Deletes []DeleteOp
	Upserts []UpsertOp
	Discard []int64
}

// Empty reports whether the plan has nothing to send or drop.
func (p PushPlan) Empty() bool {
	return len(p.Deletes) == 0 && len(p.Upserts) == 0 && len(p.Discard) == 0
}

// EntryCount is the number of queue entries the plan covers.
func (p PushPlan) EntryCount() int {
	n := len(p.Discard)
	for _, op := range p.Deletes {
		n += len(op.EntryIDs)
	}
	for _, op := range p.Upserts {
		n += len(op.EntryIDs)
	}
	return n
}

// BuildPushPlan collapses a queue snapshot into the operations of one cycle.
//
// Entries are grouped by local id; entries without one form their own group.
// A group holding a delete transmits only that delete. Otherwise the latest
// create or update is transmitted, addressed with the current remote id from
// notes, and the older entries ride along for removal. Groups whose note no
// longer exists locally and that carry no delete are discarded.
func BuildPushPlan(entries []models.QueueEntry, notes map[string]models.Note) PushPlan {
	ordered := slices.Clone(entries)
	slices.SortStableFunc(ordered, func(a, b models.QueueEntry) int {
		switch {
		case a.Before(b):
			return -1
		case b.Before(a):
			return 1
		}
		return 0
	})

	type group struct {
		entries []models.QueueEntry
	}
	var (
		order  []string
		groups = make(map[string]*group)
		plan   PushPlan
	)
	for _, e := range ordered {
		key := e.LocalID
		if key == "" {
			key = "\x00" + strconv.FormatInt(e.EntryID, 10)
		}
		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			order = append(order, key)
		}
		g.entries = append(g.entries, e)
	}

	for _, key := range order {
		g := groups[key]
		ids := make([]int64, 0, len(g.entries))
		for _, e := range g.entries {
			ids = append(ids, e.EntryID)
		}

		var (
			del    *models.QueueEntry
			latest *models.QueueEntry
		)
		for i := range g.entries {
			e := &g.entries[i]
			if e.Action == models.ActionDelete {
				if del == nil || e.Payload.RemoteID != "" {
					del = e
				}
				continue
			}
			latest = e
		}
		localID := g.entries[0].LocalID

		if del != nil {
			remoteID := del.Payload.RemoteID
			if remoteID == "" {
				if note, ok := notes[localID]; ok {
					remoteID = note.RemoteID
				}
			}
			if remoteID == "" {
				plan.Discard = append(plan.Discard, ids...)
				continue
			}
			plan.Deletes = append(plan.Deletes, DeleteOp{LocalID: localID, RemoteID: remoteID, EntryIDs: ids})
			continue
		}

		payload := latest.Payload
		remoteID := payload.RemoteID
		if localID != "" {
			note, ok := notes[localID]
			if !ok {
				plan.Discard = append(plan.Discard, ids...)
				continue
			}
			if note.RemoteID != "" {
				remoteID = note.RemoteID
			}
			if note.ClientToken != "" {
				payload.ClientToken = note.ClientToken
			}
		}
		payload.RemoteID = remoteID

		plan.Upserts = append(plan.Upserts, UpsertOp{LocalID: localID, RemoteID: remoteID, Payload: payload, EntryIDs: ids})
	}

	return plan
}
