// CLAUDE:SUMMARY User accounts — create, lookup by email/ID, admin seeding, listing with complaint contact-field overrides
package db

import (
	"database/sql"
	"fmt"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	District  string    `json:"district,omitempty"`
	Address   string    `json:"address,omitempty"`
	Age       *int      `json:"age,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateUserInput struct {
	Name         string
	Email        string
	Phone        string
	District     string
	Address      string
	PasswordHash string
	Role         string
}

func (db *DB) CreateUser(input CreateUserInput) (*User, error) {
	id := NewID()
	role := input.Role
	if role == "" {
		role = "user"
	}
	_, err := db.Exec(`
		INSERT INTO users (id, name, email, phone, district, address, password_hash, role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, input.Name, input.Email, input.Phone, input.District, input.Address,
		input.PasswordHash, role)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &User{
		ID:    id,
		Name:  input.Name,
		Email: input.Email,
		Role:  role,
	}, nil
}

func (db *DB) GetUserByEmail(email string) (*User, string, error) {
	u := &User{}
	var age sql.NullInt64
	var passwordHash string
	err := db.QueryRow(`
		SELECT id, name, email, phone, district, address, age, password_hash, role, created_at
		FROM users WHERE email = ?`, email).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.District, &u.Address, &age,
		&passwordHash, &u.Role, &u.CreatedAt)
	if err != nil {
		return nil, "", err
	}
	if age.Valid {
		v := int(age.Int64)
		u.Age = &v
	}
	return u, passwordHash, nil
}

func (db *DB) GetUserByID(id string) (*User, error) {
	u := &User{}
	var age sql.NullInt64
	err := db.QueryRow(`
		SELECT id, name, email, phone, district, address, age, role, created_at
		FROM users WHERE id = ?`, id).Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.District, &u.Address, &age,
		&u.Role, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	if age.Valid {
		v := int(age.Int64)
		u.Age = &v
	}
	return u, nil
}

// SeedAdmin creates the admin account, or resets its password if it exists.
func (db *DB) SeedAdmin(name, email, passwordHash string) (created bool, err error) {
	var id string
	err = db.QueryRow(`SELECT id FROM users WHERE email = ?`, email).Scan(&id)
	switch err {
	case nil:
		_, err = db.Exec(`UPDATE users SET password_hash = ?, role = 'admin' WHERE id = ?`,
			passwordHash, id)
		return false, err
	case sql.ErrNoRows:
		_, err = db.Exec(`
			INSERT INTO users (id, name, email, password_hash, role)
			VALUES (?, ?, ?, ?, 'admin')`, NewID(), name, email, passwordHash)
		return true, err
	default:
		return false, err
	}
}

// ListUsers returns all user accounts with contact fields overridden by the
// most recent complaint carrying the same email. Complaint forms collect
// fresher contact details than signup does, so the complaint wins the join.
func (db *DB) ListUsers() ([]*User, error) {
	rows, err := db.Query(`
		SELECT id, name, email, phone, district, address, age, role, created_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u := &User{}
		var age sql.NullInt64
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.District,
			&u.Address, &age, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		if age.Valid {
			v := int(age.Int64)
			u.Age = &v
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	overrides, err := db.complaintContactOverrides()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		o, ok := overrides[u.Email]
		if !ok {
			continue
		}
		if o.Age != nil {
			u.Age = o.Age
		}
		if o.Phone != "" {
			u.Phone = o.Phone
		}
		if o.Address != "" {
			u.Address = o.Address
		}
		if o.District != "" {
			u.District = o.District
		}
	}
	return users, nil
}

type contactOverride struct {
	Age      *int
	Phone    string
	Address  string
	District string
}

func (db *DB) complaintContactOverrides() (map[string]contactOverride, error) {
	rows, err := db.Query(`
		SELECT email, age, phone, address, district
		FROM complaints ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[string]contactOverride)
	for rows.Next() {
		var email, phone, address, district string
		var age sql.NullInt64
		if err := rows.Scan(&email, &age, &phone, &address, &district); err != nil {
			return nil, err
		}
		o := contactOverride{Phone: phone, Address: address, District: district}
		if age.Valid {
			v := int(age.Int64)
			o.Age = &v
		}
		overrides[email] = o
	}
	return overrides, rows.Err()
}
