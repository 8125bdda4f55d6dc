package postgres

import "time"

// Pin makes ids and timestamps deterministic in tests.
func (r *PgNotificationRepository) Pin(id string, at time.Time) {
	r.newID = func() string { return id }
	r.now = func() time.Time { return at }
}
