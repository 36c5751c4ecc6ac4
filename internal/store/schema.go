package store

// The quantity CHECK is the last line of defense for the inventory
// invariant; the circulation engine's guarded updates are the first.
const schema = `
CREATE TABLE IF NOT EXISTS books (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	isbn TEXT NOT NULL UNIQUE,
	quantity INT NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	shelf_location TEXT NOT NULL DEFAULT '',
	version INT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS borrowers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	salt TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS admins (
	id BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	salt TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS loans (
	id BIGSERIAL PRIMARY KEY,
	book_id BIGINT NOT NULL REFERENCES books (id),
	borrower_id BIGINT NOT NULL REFERENCES borrowers (id),
	checkout_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	due_date TIMESTAMPTZ NOT NULL,
	return_date TIMESTAMPTZ,
	version INT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_loans_borrower_outstanding
	ON loans (borrower_id) WHERE return_date IS NULL;
CREATE INDEX IF NOT EXISTS idx_loans_due_outstanding
	ON loans (due_date) WHERE return_date IS NULL;
CREATE INDEX IF NOT EXISTS idx_loans_checkout_date
	ON loans (checkout_date);
`
