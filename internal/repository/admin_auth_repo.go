package repository

import (
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"fieldservice/internal/db"
)

type DispatcherAuthRepository interface {
	GetByEmail(email string) (*db.Dispatcher, error)
	CreateDispatcher(companyID, email, password string) error
}

type dispatcherAuthRepository struct {
	db *sql.DB
}

func NewDispatcherAuthRepository(database *sql.DB) DispatcherAuthRepository {
	return &dispatcherAuthRepository{db: database}
}

func (r *dispatcherAuthRepository) GetByEmail(email string) (*db.Dispatcher, error) {
	var d db.Dispatcher
	err := r.db.QueryRow(
		`SELECT id, company_id::text, email, password_hash FROM dispatchers WHERE email = $1`, email).
		Scan(&d.ID, &d.CompanyID, &d.Email, &d.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *dispatcherAuthRepository) CreateDispatcher(companyID, email, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	query := `INSERT INTO dispatchers (company_id, email, password_hash) VALUES ($1, $2, $3)`
	_, err = r.db.Exec(query, companyID, email, hashedPassword)
	if err != nil {
		return err
	}

	return nil
}
