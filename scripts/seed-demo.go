//go:build ignore

// Package main seeds a demo database with synthetic realms and events.
// Usage: go run scripts/seed-demo.go -db demo.db -realms 25 -events 500
//
// The inserts fire the queue triggers, so a follow-up 'searchsync drain'
// indexes everything the script created.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/openmediahub/searchsync/internal/db"
)

var (
	dbPath    = flag.String("db", "demo.db", "Database file to create or extend")
	numRealms = flag.Int("realms", 25, "Number of realms to create")
	numEvents = flag.Int("events", 500, "Number of events to create")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// Word pools for generating plausible media names
var (
	orgNames = []string{
		"Engineering", "Design", "Marketing", "Research", "Operations",
		"Support", "Finance", "People", "Platform", "Security",
	}
	topicNames = []string{
		"All Hands", "Weekly Sync", "Deep Dives", "Onboarding", "Townhalls",
		"Demos", "Retrospectives", "Workshops", "Announcements", "Training",
	}
	titleLead = []string{
		"Introduction to", "Advanced", "Scaling", "Debugging", "Migrating",
		"Rethinking", "Profiling", "Monitoring", "Designing", "Shipping",
	}
	titleSubject = []string{
		"the Ingest Pipeline", "Search Relevance", "the Player SDK",
		"Live Streaming", "Access Control", "the Upload Flow",
		"Transcoding", "Subtitles", "the Review Process", "Notifications",
	}
	speakers = []string{
		"Maria Fuentes", "Jonas Berg", "Priya Nair", "Tom Okafor",
		"Lena Hoffmann", "Carlos Mendes", "Aiko Tanaka", "Sam Whitfield",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	ctx := context.Background()

	sdb, err := db.Open(*dbPath, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	if err := db.Migrate(ctx, sdb); err != nil {
		fmt.Fprintf(os.Stderr, "Error migrating schema: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeding %d realms and %d events into %s...\n", *numRealms, *numEvents, *dbPath)

	realmIDs, err := seedRealms(ctx, sdb, rng, *numRealms)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding realms: %v\n", err)
		os.Exit(1)
	}

	if err := seedEvents(ctx, sdb, rng, realmIDs, *numEvents); err != nil {
		fmt.Fprintf(os.Stderr, "Error seeding events: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. Run 'searchsync drain' to index the new entities.\n")
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

// seedRealms creates a two-level tree: top-level org realms, each with
// a handful of topic children. Returns the ids of every created realm.
func seedRealms(ctx context.Context, sdb *sql.DB, rng *rand.Rand, n int) ([]int64, error) {
	tx, err := sdb.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var ids []int64
	var parents []int64
	for i := 0; i < n; i++ {
		var (
			parent any
			name   string
			path   string
		)
		if len(parents) == 0 || rng.Intn(4) == 0 {
			name = fmt.Sprintf("%s %d", pick(rng, orgNames), i)
			path = "/" + name
		} else {
			p := parents[rng.Intn(len(parents))]
			parent = p
			name = fmt.Sprintf("%s %d", pick(rng, topicNames), i)
			path = fmt.Sprintf("/realm-%d/%s", p, name)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO realms (parent, name, full_path) VALUES (?, ?, ?)`,
			parent, name, path)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
		if parent == nil {
			parents = append(parents, id)
		}
	}

	return ids, tx.Commit()
}

func seedEvents(ctx context.Context, sdb *sql.DB, rng *rand.Rand, realmIDs []int64, n int) error {
	tx, err := sdb.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (realm_id, title, description, creators, duration_ms, is_live)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		title := fmt.Sprintf("%s %s", pick(rng, titleLead), pick(rng, titleSubject))
		desc := fmt.Sprintf("Recording #%d. %s, presented to the wider team.", i, title)
		creators := fmt.Sprintf(`["%s"]`, pick(rng, speakers))
		if rng.Intn(3) == 0 {
			creators = fmt.Sprintf(`["%s", "%s"]`, pick(rng, speakers), pick(rng, speakers))
		}

		_, err := stmt.ExecContext(ctx,
			realmIDs[rng.Intn(len(realmIDs))],
			title,
			desc,
			creators,
			int64(rng.Intn(7200))*1000,
			rng.Intn(50) == 0,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
