package database

import (
	"context"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"
)

var Container *sqlstore.Container

// InitWhatsmeow opens the Postgres-backed device store holding the WhatsApp
// session credentials.
func InitWhatsmeow(dbURL string) {
	dbLog := waLog.Stdout("Database", "WARN", true)
	container, err := sqlstore.New(context.Background(), "postgres", dbURL, dbLog)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect whatsmeow DB")
	}
	Container = container
	log.Info().Msg("Whatsmeow DB connected successfully")
}
