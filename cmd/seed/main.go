package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salvalabdesarollo-source/dashboard/internal/db"
	"github.com/salvalabdesarollo-source/dashboard/internal/scan"
	"github.com/salvalabdesarollo-source/dashboard/internal/slots"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	users, err := seedUsers(context.Background(), pool, 8)
	if err != nil {
		log.Fatalf("seed users: %v", err)
	}
	clinics, err := seedClinics(context.Background(), pool, 6)
	if err != nil {
		log.Fatalf("seed clinics: %v", err)
	}
	doctors, err := seedDoctors(context.Background(), pool, 25, clinics)
	if err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedScans(context.Background(), pool, users, doctors); err != nil {
		log.Fatalf("seed scans: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d users", count)

	var ids []uuid.UUID
	for i := 0; i < count; i++ {
		role := scan.RoleScanner
		if i < 2 {
			role = scan.RoleAdministrator
		}
		id := uuid.New()
		phone := gofakeit.Phone()
		_, err := pool.Exec(ctx, `
			INSERT INTO users (id, username, role, phone)
			VALUES ($1, $2, $3, $4)
		`, id, gofakeit.Username(), role, phone)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedClinics(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d clinics", count)

	var ids []uuid.UUID
	for i := 0; i < count; i++ {
		id := uuid.New()
		lat := gofakeit.Latitude()
		lng := gofakeit.Longitude()
		_, err := pool.Exec(ctx, `
			INSERT INTO clinics (id, name, address, latitude, longitude)
			VALUES ($1, $2, $3, $4, $5)
		`, id, gofakeit.Company()+" Dental", gofakeit.Address().Address, lat, lng)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int, clinics []uuid.UUID) ([]uuid.UUID, error) {
	log.Printf("seeding %d doctors", count)

	var ids []uuid.UUID
	for i := 0; i < count; i++ {
		id := uuid.New()
		var clinicID *uuid.UUID
		if len(clinics) > 0 && gofakeit.Bool() {
			clinicID = &clinics[gofakeit.Number(0, len(clinics)-1)]
		}
		phone := gofakeit.Phone()
		_, err := pool.Exec(ctx, `
			INSERT INTO doctors (id, name, phone, clinic_id)
			VALUES ($1, $2, $3, $4)
		`, id, "Dr. "+gofakeit.Name(), phone, clinicID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// seedScans books a handful of slots across the coming week, skipping
// Sundays naturally because those days generate no slots.
func seedScans(ctx context.Context, pool *pgxpool.Pool, users, doctors []uuid.UUID) error {
	log.Println("seeding scans for the coming week")

	booked := 0
	for dayOffset := 0; dayOffset < 7; dayOffset++ {
		day := time.Now().AddDate(0, 0, dayOffset)
		daySlots := slots.Generate(day)
		if len(daySlots) == 0 {
			continue
		}

		for _, s := range daySlots {
			if !gofakeit.Bool() {
				continue
			}
			t, _ := time.Parse("15:04", s.Value)
			at := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)

			var detail *string
			if gofakeit.Bool() {
				d := gofakeit.Sentence(6)
				detail = &d
			}

			_, err := pool.Exec(ctx, `
				INSERT INTO scans (id, date_time, detail, created_by, doctor_id)
				VALUES ($1, $2, $3, $4, $5)
			`, uuid.New(), at.UTC(), detail,
				users[gofakeit.Number(0, len(users)-1)],
				doctors[gofakeit.Number(0, len(doctors)-1)])
			if err != nil {
				return err
			}
			booked++
		}
	}

	log.Printf("booked %d scans", booked)
	return nil
}
