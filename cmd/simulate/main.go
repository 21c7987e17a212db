// simulate races N concurrent dashboard clients against one api-server:
// every worker walks the real booking workflow (pick date, resolve
// occupancy, pick a free slot, submit) for the same day, so slot conflicts
// are decided by the server, never by the advisory occupied-slot read.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/salvalabdesarollo-source/dashboard/internal/client"
	"github.com/salvalabdesarollo-source/dashboard/internal/dashboard"
	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
)

type counters struct {
	booked    atomic.Int64
	conflicts atomic.Int64
	errors    atomic.Int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	var (
		baseURL = flag.String("api", "http://127.0.0.1:8080", "api-server base URL")
		workers = flag.Int("workers", 8, "concurrent dashboard clients")
		rounds  = flag.Int("rounds", 5, "booking attempts per worker")
		ahead   = flag.Int("ahead", 1, "days ahead to book")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := client.New(*baseURL)

	usersPage, err := api.ListUsers(ctx, 1, 50)
	if err != nil {
		log.Fatalf("list users: %v", err)
	}
	doctorsPage, err := api.ListDoctors(ctx, 1, 50)
	if err != nil {
		log.Fatalf("list doctors: %v", err)
	}
	if len(usersPage.Items) == 0 || len(doctorsPage.Items) == 0 {
		log.Fatal("no users or doctors seeded; run cmd/seed first")
	}

	day := time.Now().AddDate(0, 0, *ahead)
	log.Printf("racing %d clients x %d rounds for %s", *workers, *rounds, day.Format("2006-01-02"))

	var c counters
	var wg sync.WaitGroup
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		viewer := usersPage.Items[w%len(usersPage.Items)]
		go func(viewer scan.User, seed int64) {
			defer wg.Done()
			runWorker(ctx, *baseURL, viewer, doctorsPage.Items, day, *rounds, seed, &c)
		}(viewer, int64(w))
	}
	wg.Wait()

	log.Printf("done: booked=%d conflicts=%d errors=%d",
		c.booked.Load(), c.conflicts.Load(), c.errors.Load())
}

func runWorker(ctx context.Context, baseURL string, viewer scan.User, doctors []scan.Doctor, day time.Time, rounds int, seed int64, c *counters) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + seed))
	api := client.New(baseURL)
	api.Actor = viewer.ID
	resolver := dashboard.NewResolver(api, time.Local)

	for i := 0; i < rounds; i++ {
		booking := dashboard.NewBooking(api, resolver, viewer, time.Local)
		if err := booking.ChooseDate(ctx, day); err != nil {
			c.errors.Add(1)
			continue
		}

		// Pick a random free slot from the advisory view; the server may
		// still reject it if another client got there first.
		var free []string
		for _, s := range booking.Slots() {
			if booking.Selectable(s.Value) {
				free = append(free, s.Value)
			}
		}
		if len(free) == 0 {
			return
		}
		if err := booking.ChooseSlot(free[rng.Intn(len(free))]); err != nil {
			continue
		}
		booking.SetDoctor(doctors[rng.Intn(len(doctors))].ID)

		_, err := booking.Submit(ctx)
		switch {
		case err == nil:
			c.booked.Add(1)
		case isConflict(err):
			c.conflicts.Add(1)
		default:
			c.errors.Add(1)
			log.Printf("worker %s: submit: %v", viewer.Username, err)
		}
	}
}

func isConflict(err error) bool {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == 409
	}
	return false
}
