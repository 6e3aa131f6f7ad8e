package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/guregu/null/v5"

	"car_dealership/internal/domain"
)

// MySQL error number for ER_DUP_ENTRY.
const errDupEntry = 1062

func valStr(s string) null.String { return null.NewString(s, s != "") }

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) CountMakes(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, countMakesSQL).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Repo) SeedCatalog(ctx context.Context, makes []domain.CarMake) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	// no-op once committed
	defer func() { _ = tx.Rollback() }()

	for _, mk := range makes {
		res, err := tx.ExecContext(ctx, upsertMakeSQL, mk.Name, valStr(mk.Description), valStr(mk.Country))
		if err != nil {
			return fmt.Errorf("upsert make %q: %w", mk.Name, err)
		}
		makeID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, m := range mk.Models {
			if _, err := tx.ExecContext(ctx, upsertModelSQL, makeID, m.Name, m.Type, m.Year, m.DealerID); err != nil {
				return fmt.Errorf("upsert model %q/%q: %w", mk.Name, m.Name, err)
			}
		}
	}
	return tx.Commit()
}

func (r *Repo) ListCarModels(ctx context.Context) ([]domain.CarModel, error) {
	rows, err := r.db.QueryContext(ctx, listCarModelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.CarModel, 0, 64)
	for rows.Next() {
		var m domain.CarModel
		if err := rows.Scan(&m.ID, &m.MakeID, &m.MakeName, &m.Name, &m.Type, &m.Year, &m.DealerID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) UserExists(ctx context.Context, username string) (bool, error) {
	var ok bool
	if err := r.db.QueryRowContext(ctx, userExistsSQL, username).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CreateUser inserts u and returns its id. A taken username yields domain.ErrAlreadyRegistered.
func (r *Repo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL,
		u.Username,
		u.PasswordHash,
		valStr(u.FirstName),
		valStr(u.LastName),
		valStr(u.Email),
	)
	if err != nil {
		var me *gomysql.MySQLError
		if errors.As(err, &me) && me.Number == errDupEntry {
			return 0, domain.ErrAlreadyRegistered
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	var (
		u                  domain.User
		first, last, email null.String
	)
	err := r.db.QueryRowContext(ctx, getUserByUsernameSQL, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &first, &last, &email, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, err
	}
	u.FirstName = first.ValueOrZero()
	u.LastName = last.ValueOrZero()
	u.Email = email.ValueOrZero()
	return u, nil
}
