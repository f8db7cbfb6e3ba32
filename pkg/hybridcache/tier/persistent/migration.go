package persistent

import (
	"encoding/json"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
)

// currentSchemaVersion is bumped whenever the record layout in encoding.go
// changes in a way that requires a migration step below.
const currentSchemaVersion = 1

// migrate brings a freshly opened database up to currentSchemaVersion. It
// is intentionally tiny: an embedded KV store's record layout changes far
// less often than a SQL schema, so this does not attempt to be a general
// migration runner, just a version gate with room for future steps.
func migrate(db *badger.DB) error {
	applied, err := readSchemaVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for v := applied + 1; v <= currentSchemaVersion; v++ {
		if err := applyMigration(db, v); err != nil {
			return fmt.Errorf("apply migration %d: %w", v, err)
		}
		if err := writeSchemaVersion(db, v); err != nil {
			return fmt.Errorf("persist schema version %d: %w", v, err)
		}
	}
	return nil
}

// applyMigration runs the steps for schema version v. Version 1 is the
// baseline layout and has no transformation to apply.
func applyMigration(db *badger.DB, v int) error {
	switch v {
	case 1:
		return nil
	default:
		return fmt.Errorf("no migration defined for schema version %d", v)
	}
}

func readSchemaVersion(db *badger.DB) (int, error) {
	var version int
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(schemaVersionKey))
		if err == badger.ErrKeyNotFound {
			version = 0
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &version)
		})
	})
	return version, err
}

func writeSchemaVersion(db *badger.DB, version int) error {
	bytes, err := json.Marshal(version)
	if err != nil {
		return err
	}
	return db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(schemaVersionKey), bytes)
	})
}
