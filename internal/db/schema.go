package db

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    email           TEXT UNIQUE NOT NULL,
    phone           TEXT DEFAULT '',
    district        TEXT DEFAULT '',
    address         TEXT DEFAULT '',
    age             INTEGER,
    password_hash   TEXT NOT NULL,
    role            TEXT DEFAULT 'user' CHECK(role IN ('user','admin')),
    created_at      DATETIME DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS complaints (
    id                TEXT PRIMARY KEY,
    complaint_code    TEXT UNIQUE NOT NULL,
    user_id           TEXT NOT NULL REFERENCES users(id),
    name              TEXT NOT NULL,
    age               INTEGER,
    phone             TEXT DEFAULT '',
    email             TEXT NOT NULL,
    address           TEXT DEFAULT '',
    district          TEXT NOT NULL,
    description       TEXT NOT NULL,
    suggestions       TEXT DEFAULT '',
    image             TEXT DEFAULT '',
    lat               REAL,
    lng               REAL,
    status            TEXT DEFAULT 'pending' CHECK(status IN ('pending','in progress','resolved')),
    category          TEXT DEFAULT 'unassigned',
    priority          TEXT DEFAULT 'low' CHECK(priority IN ('low','medium','high')),
    model_confidence  REAL,
    anomaly_score     REAL,
    classifier_source TEXT CHECK(classifier_source IN ('model','heuristic') OR classifier_source IS NULL),
    human_correction  TEXT,
    created_at        DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_complaints_user ON complaints(user_id);
CREATE INDEX IF NOT EXISTS idx_complaints_status ON complaints(status);
CREATE INDEX IF NOT EXISTS idx_complaints_category ON complaints(category);
CREATE INDEX IF NOT EXISTS idx_complaints_email ON complaints(email);
CREATE INDEX IF NOT EXISTS idx_complaints_code ON complaints(complaint_code);

CREATE TABLE IF NOT EXISTS notifications (
    id            TEXT PRIMARY KEY,
    type          TEXT NOT NULL CHECK(type IN ('new_complaint','status_update','system')),
    title         TEXT NOT NULL,
    message       TEXT NOT NULL,
    complaint_id  TEXT REFERENCES complaints(id),
    read          INTEGER DEFAULT 0 CHECK(read IN (0, 1)),
    created_at    DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_notifications_created ON notifications(created_at);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);
`
