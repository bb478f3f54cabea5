package db

// Catalog queries. Values are bound as parameters; identifiers that cannot
// be bound go through quoteIdentifier.
const (
	databaseSettingsQuery = `
		SELECT default_character_set_name, default_collation_name
		FROM information_schema.schemata
		WHERE schema_name = ?
	`

	// %s is full_collation_name or collation_name, depending on the server.
	tablesQuery = `
		SELECT
			t.table_name,
			t.table_type,
			IF(t.table_comment = 'VIEW' AND t.table_type = 'VIEW', '', t.table_comment) AS table_comment,
			ccsa.character_set_name AS table_character_set,
			t.table_collation
		FROM information_schema.tables t
		LEFT JOIN information_schema.collation_character_set_applicability ccsa
			ON ccsa.%s = t.table_collation
		WHERE t.table_schema = ?
			AND t.table_type IN ('BASE TABLE', 'VIEW')
		ORDER BY t.table_name
	`

	// The versioned comments only add columns on servers that have them.
	columnsQuery = `
		SELECT
			column_name,
			ordinal_position,
			column_default,
			IF(is_nullable = 'YES', 1, 0) AS is_nullable,
			data_type,
			character_set_name,
			collation_name,
			column_type,
			column_comment,
			extra
			/*!50706 , generation_expression */
			/*M!100200 , generation_expression */
			/*!80003 , srs_id */
		FROM information_schema.columns
		WHERE table_schema = ?
			AND table_name = ?
		ORDER BY ordinal_position
	`

	primaryKeyQuery = `
		SELECT
			index_name,
			GROUP_CONCAT(column_name ORDER BY seq_in_index SEPARATOR ',') AS column_names,
			GROUP_CONCAT(CAST(IFNULL(sub_part, 0) AS CHAR) ORDER BY seq_in_index SEPARATOR ',') AS sub_parts
		FROM information_schema.statistics
		WHERE table_schema = ?
			AND table_name = ?
			AND index_name = 'PRIMARY'
		GROUP BY index_name
	`

	indexesQuery = `
		SELECT
			index_name,
			non_unique,
			GROUP_CONCAT(column_name ORDER BY seq_in_index SEPARATOR ',') AS column_names,
			GROUP_CONCAT(CAST(IFNULL(sub_part, 0) AS CHAR) ORDER BY seq_in_index SEPARATOR ',') AS sub_parts,
			GROUP_CONCAT(IFNULL(collation, 'A') ORDER BY seq_in_index SEPARATOR ',') AS collations,
			index_type
		FROM information_schema.statistics
		WHERE table_schema = ?
			AND table_name = ?
			AND index_name <> 'PRIMARY'
		GROUP BY index_name, non_unique, index_type
	`

	// %s.%s is the quoted database and table.
	showCreateTableQuery = `SHOW CREATE TABLE %s.%s`

	foreignKeysQuery = `
		SELECT
			kcu.constraint_name,
			kcu.table_name,
			kcu.referenced_table_name,
			GROUP_CONCAT(CONCAT_WS('|', kcu.column_name, kcu.referenced_column_name) ORDER BY kcu.ordinal_position SEPARATOR ',') AS paired_columns,
			(
				SELECT rc.delete_rule
				FROM information_schema.referential_constraints rc
				WHERE rc.constraint_name = kcu.constraint_name
					AND rc.constraint_schema = kcu.constraint_schema
			) AS delete_rule
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.table_name = ?
			AND kcu.constraint_name <> 'PRIMARY'
			AND kcu.referenced_table_name IS NOT NULL
		GROUP BY kcu.constraint_schema, kcu.constraint_name, kcu.table_name, kcu.referenced_table_name
	`

	checkConstraintsQuery = `
		SELECT c.constraint_name, c.check_clause
		FROM information_schema.check_constraints c
		JOIN information_schema.table_constraints t
			ON t.constraint_catalog = c.constraint_catalog
			AND t.constraint_schema = c.constraint_schema
			AND t.constraint_name = c.constraint_name
		WHERE t.table_schema = ?
			AND t.constraint_schema = t.table_schema
			AND t.table_name = ?
	`

	sequenceNamesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ?
			AND table_type = 'SEQUENCE'
		ORDER BY table_name
	`

	// %s.%s is the quoted database and sequence.
	sequenceQuery = `SELECT start_value, minimum_value, maximum_value, increment, cycle_option FROM %s.%s`
)
