// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	noteColumns = `local_id, remote_id, client_token, title, content, last_modified, synced, owner_id`

	getNoteByLocalID = `SELECT ` + noteColumns + ` FROM notes WHERE local_id = ?;`

	getNoteByRemoteID = `SELECT ` + noteColumns + ` FROM notes WHERE remote_id = ?;`

	getNoteByClientToken = `SELECT ` + noteColumns + ` FROM notes
		WHERE client_token = ? AND client_token <> ''
		LIMIT 1;`

	getUnsyncedNoteByTitle = `SELECT ` + noteColumns + ` FROM notes
		WHERE title = ? AND remote_id IS NULL AND synced = 0
		ORDER BY last_modified ASC, local_id ASC
		LIMIT 1;`

	getAllNotes = `SELECT ` + noteColumns + ` FROM notes
		ORDER BY last_modified DESC, local_id ASC;`

	upsertNote = `
		INSERT INTO notes (` + noteColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (local_id) DO UPDATE SET
			remote_id     = excluded.remote_id,
			client_token  = excluded.client_token,
			title         = excluded.title,
			content       = excluded.content,
			last_modified = excluded.last_modified,
			synced        = excluded.synced,
			owner_id      = excluded.owner_id;`

	getRemoteIDOwner = `SELECT local_id FROM notes WHERE remote_id = ? AND local_id <> ?;`

	deleteNote = `DELETE FROM notes WHERE local_id = ?;`

	enqueueEntry = `
		INSERT INTO sync_queue (local_id, action, payload, enqueued_at, retry_count)
		VALUES (?, ?, ?, ?, 0);`

	getOrderedEntries = `
		SELECT entry_id, local_id, action, payload, enqueued_at, retry_count
		FROM sync_queue
		ORDER BY enqueued_at ASC, entry_id ASC;`

	deleteEntry = `DELETE FROM sync_queue WHERE entry_id = ?;`

	deleteEntriesByLocalID = `DELETE FROM sync_queue WHERE local_id = ?;`

	incrementEntryRetry = `UPDATE sync_queue SET retry_count = retry_count + 1 WHERE entry_id = ?;`

	countEntries = `SELECT COUNT(*) FROM sync_queue;`

	getMetaValue = `SELECT value FROM sync_meta WHERE key = ?;`

	setMetaValue = `
		INSERT INTO sync_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`

	saveCredential = `
		INSERT INTO users (id, user_id, login, token, at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			login   = excluded.login,
			token   = excluded.token,
			at      = excluded.at;`

	getCredential = `SELECT user_id, login, token, at FROM users WHERE id = 1;`

	clearCredential = `DELETE FROM users;`
)

const metaKeyWatermark = "watermark"
