package config

import (
	"log"
	"time"

	"bookhaven/internal/adapters/persistence/models"
	"bookhaven/internal/core/domain"
	"bookhaven/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders. Roles carry no stored permission list; the
// rbac package is the only permission source of truth.
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedUsers(); err != nil {
		log.Printf("⚠️ User seeder skipped: %v", err)
	}
	if err := s.seedBooks(); err != nil {
		log.Printf("⚠️ Book seeder skipped: %v", err)
	}
	if err := s.seedDiscounts(); err != nil {
		log.Printf("⚠️ Discount seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedUsers seeds default admin and staff accounts.
// Development/testing only; production accounts are provisioned
// through a secure process.
func (s *Seeder) seedUsers() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", string(domain.RoleAdmin)).Count(&count)
	if count > 0 {
		return nil // Admin already exists
	}

	adminPass, err := password.Hash("admin123456")
	if err != nil {
		return err
	}
	staffPass, err := password.Hash("staff123456")
	if err != nil {
		return err
	}

	users := []*models.User{
		{
			Email:    "admin@bookhaven.io",
			Username: "admin",
			Password: adminPass,
			Role:     string(domain.RoleAdmin),
			IsActive: true,
		},
		{
			Email:    "staff@bookhaven.io",
			Username: "frontdesk",
			Password: staffPass,
			Role:     string(domain.RoleStaff),
			IsActive: true,
		},
	}

	for _, u := range users {
		if err := s.db.Create(u).Error; err != nil {
			return err
		}
		log.Printf("✅ Seeded user: %s (%s)", u.Username, u.Role)
	}
	return nil
}

// seedBooks seeds a starter catalog
func (s *Seeder) seedBooks() error {
	var count int64
	s.db.Model(&models.Book{}).Count(&count)
	if count > 0 {
		return nil
	}

	books := []*models.Book{
		{Title: "The Go Programming Language", Author: "Donovan & Kernighan", Price: 34.99, Stock: 12, IsActive: true},
		{Title: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Price: 44.99, Stock: 8, IsActive: true},
		{Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", Price: 24.99, Stock: 20, IsActive: true},
		{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", Price: 24.99, Stock: 15, IsActive: true},
	}

	for _, b := range books {
		if err := s.db.Create(b).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d books", len(books))
	return nil
}

// seedDiscounts seeds starter discounts
func (s *Seeder) seedDiscounts() error {
	var count int64
	s.db.Model(&models.Discount{}).Count(&count)
	if count > 0 {
		return nil
	}

	ends := time.Now().AddDate(0, 3, 0)
	discounts := []*models.Discount{
		{Name: "Opening promotion", Percent: 10, MinAmount: 20, Stackable: false, IsActive: true, EndsAt: &ends},
		{Name: "Bulk reader", Percent: 5, MinAmount: 100, Stackable: true, IsActive: true},
	}

	for _, d := range discounts {
		if err := s.db.Create(d).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Seeded %d discounts", len(discounts))
	return nil
}
