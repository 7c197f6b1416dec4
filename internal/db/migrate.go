package db

import (
	"log"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/feedback"
	"memorial-ledger-backend/internal/memorial"
)

// Migrate runs database migrations
func Migrate() {
	err := AppDb.AutoMigrate(
		&domain.Ledger{},
		&domain.LedgerAction{},
		&domain.LedgerAttachment{},
		&domain.LedgerCollaborator{},
		&domain.LedgerStatusUpdate{},
		&memorial.Memorial{},
		&feedback.Feedback{},
	)

	if err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}
