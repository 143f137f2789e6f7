package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifierEscapesBackticks(t *testing.T) {
	assert.Equal(t, "`orders`", quoteIdentifier("orders"))
	assert.Equal(t, "`weird``name`", quoteIdentifier("weird`name"))
}

func TestValidTableNameRejectsInjectionAttempts(t *testing.T) {
	assert.True(t, validTableName.MatchString("orders"))
	assert.True(t, validTableName.MatchString("_orders_2"))
	assert.False(t, validTableName.MatchString("orders; DROP TABLE users"))
	assert.False(t, validTableName.MatchString("orders`"))
	assert.False(t, validTableName.MatchString("schema.orders"))
	assert.False(t, validTableName.MatchString(""))
}

func TestMySQLScannerOpenRejectsInvalidTableNameBeforeDialing(t *testing.T) {
	s := NewMySQLScanner("unused-dsn", "orders; DROP TABLE users", nil)
	err := s.Open()
	assert.Error(t, err)
}
