package store

// Schema is the DDL for the case note tables. Applied by deployment
// migrations in production and by the integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS case_note_type (
	code        text PRIMARY KEY,
	description text NOT NULL
);

CREATE TABLE IF NOT EXISTS case_note_sub_type (
	code                text NOT NULL,
	type_code           text NOT NULL REFERENCES case_note_type (code),
	description         text NOT NULL,
	active              boolean NOT NULL DEFAULT true,
	sensitive           boolean NOT NULL DEFAULT false,
	restricted_use      boolean NOT NULL DEFAULT false,
	sync_to_nomis       boolean NOT NULL DEFAULT false,
	dps_user_selectable boolean NOT NULL DEFAULT true,
	PRIMARY KEY (type_code, code)
);

CREATE TABLE IF NOT EXISTS case_note (
	id                uuid PRIMARY KEY,
	person_identifier text NOT NULL,
	type_code         text NOT NULL,
	sub_type_code     text NOT NULL,
	occurred_at       timestamptz NOT NULL,
	location_id       text NOT NULL,
	author_username   text NOT NULL,
	author_user_id    text NOT NULL,
	author_name       text NOT NULL,
	note_text         text NOT NULL,
	system_generated  boolean NOT NULL DEFAULT false,
	legacy_id         bigint UNIQUE,
	created_at        timestamptz NOT NULL,
	created_by        text NOT NULL,
	version           bigint NOT NULL DEFAULT 0,
	FOREIGN KEY (type_code, sub_type_code) REFERENCES case_note_sub_type (type_code, code)
);

CREATE INDEX IF NOT EXISTS idx_case_note_person ON case_note (upper(person_identifier));
CREATE INDEX IF NOT EXISTS idx_case_note_occurred ON case_note (occurred_at);

CREATE TABLE IF NOT EXISTS case_note_amendment (
	id              uuid PRIMARY KEY,
	case_note_id    uuid NOT NULL REFERENCES case_note (id) ON DELETE CASCADE,
	author_username text NOT NULL,
	author_user_id  text NOT NULL,
	author_name     text NOT NULL,
	amendment_text  text NOT NULL,
	created_at      timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_amendment_note ON case_note_amendment (case_note_id);

CREATE TABLE IF NOT EXISTS deleted_case_note (
	id           uuid PRIMARY KEY,
	case_note_id uuid NOT NULL,
	note         jsonb NOT NULL,
	deleted_at   timestamptz NOT NULL,
	deleted_by   text NOT NULL,
	cause        text NOT NULL
);

CREATE SEQUENCE IF NOT EXISTS case_note_legacy_id_seq START WITH 90000000;
`
