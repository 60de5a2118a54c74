package sqldriver

import "testing"

func TestProducesRowsDetectsSelectLikeStatements(t *testing.T) {
	for _, sql := range []string{
		"SELECT * FROM t",
		"  select 1",
		"\n\tWITH x AS (SELECT 1) SELECT * FROM x",
		"SHOW TABLES",
		"EXPLAIN SELECT 1",
		"DESCRIBE t",
		"VALUES (1), (2)",
	} {
		if !producesRows(sql) {
			t.Errorf("expected producesRows(%q) = true", sql)
		}
	}
}

func TestProducesRowsRejectsExecStatements(t *testing.T) {
	for _, sql := range []string{
		"INSERT INTO t VALUES (1)",
		"UPDATE t SET a = 1",
		"DELETE FROM t",
		"CREATE TABLE t (id INT)",
		"DROP TABLE t",
	} {
		if producesRows(sql) {
			t.Errorf("expected producesRows(%q) = false", sql)
		}
	}
}
