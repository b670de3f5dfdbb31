package main

import (
	"database/sql"

	"github.com/vignesh0909/adbond.net-sub002/repository"
)

// Repositories holds every repository so the wire-up functions take one
// argument instead of a dozen.
type Repositories struct {
	User         repository.UserRepository
	Session      repository.SessionRepository
	ResetToken   repository.PasswordResetRepository
	Ban          repository.BanRepository
	Entity       repository.EntityRepository
	Offer        repository.OfferRepository
	Review       repository.ReviewRepository
	Chat         repository.ChatRepository
	Verification repository.VerificationRepository
	Stats        repository.StatsRepository
}

// initRepositories shares one *sql.DB pool between all repositories.
func initRepositories(conn *sql.DB) *Repositories {
	return &Repositories{
		User:         repository.NewSQLiteUserRepo(conn),
		Session:      repository.NewSQLiteSessionRepo(conn),
		ResetToken:   repository.NewSQLitePasswordResetRepo(conn),
		Ban:          repository.NewSQLiteBanRepo(conn),
		Entity:       repository.NewSQLiteEntityRepo(conn),
		Offer:        repository.NewSQLiteOfferRepo(conn),
		Review:       repository.NewSQLiteReviewRepo(conn),
		Chat:         repository.NewSQLiteChatRepo(conn),
		Verification: repository.NewSQLiteVerificationRepo(conn),
		Stats:        repository.NewSQLiteStatsRepo(conn),
	}
}
