package mysql

const countMakesSQL = `SELECT COUNT(*) FROM car_makes`

// LAST_INSERT_ID(id) makes LastInsertId report the existing row on a duplicate name.
const upsertMakeSQL = `
INSERT INTO car_makes
  (name, description, country)
VALUES
  (?, ?, ?)
ON DUPLICATE KEY UPDATE
  id          = LAST_INSERT_ID(id),
  description = VALUES(description),
  country     = VALUES(country)
`

const upsertModelSQL = `
INSERT INTO car_models
  (car_make_id, name, type, year, dealer_id)
VALUES
  (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  type      = VALUES(type),
  dealer_id = VALUES(dealer_id)
`

// Inner join: a model whose make does not resolve is never listed.
const listCarModelsSQL = `
SELECT
  m.id,
  m.car_make_id,
  k.name,
  m.name,
  m.type,
  m.year,
  m.dealer_id
FROM car_models m
JOIN car_makes k ON k.id = m.car_make_id
ORDER BY m.id
`

const userExistsSQL = `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`

const insertUserSQL = `
INSERT INTO users
  (username, password_hash, first_name, last_name, email)
VALUES
  (?, ?, ?, ?, ?)
`

const getUserByUsernameSQL = `
SELECT id, username, password_hash, first_name, last_name, email, created_at
FROM users
WHERE username = ?
`
