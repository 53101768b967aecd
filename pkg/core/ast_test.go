package core

import (
	"testing"

	"github.com/leapstack-labs/leapmigrate/pkg/token"
	"github.com/stretchr/testify/assert"
)

func pos(line, col int) token.Position {
	return token.Position{Line: line, Column: col}
}

func TestTypeRef_String(t *testing.T) {
	assert.Equal(t, "NUMERIC(10,2)", (&TypeRef{Name: "NUMERIC", Params: []string{"10", "2"}}).String())
	assert.Equal(t, "TEXT[]", (&TypeRef{Name: "TEXT", Array: true}).String())
	assert.Equal(t, "", (*TypeRef)(nil).String())
}

func TestTableName_Qualified(t *testing.T) {
	assert.Equal(t, "orders", (&TableName{Name: "orders", Alias: "o"}).Qualified())
	assert.Equal(t, "sales.public.orders", (&TableName{Catalog: "sales", Schema: "public", Name: "orders"}).Qualified())
}

func TestSelectItem_OutputName(t *testing.T) {
	assert.Equal(t, "total", SelectItem{Expr: &FuncCall{Name: "SUM"}, Alias: "total"}.OutputName())
	assert.Equal(t, "id", SelectItem{Expr: &ColumnRef{Table: "o", Column: "id"}}.OutputName())
	assert.Equal(t, "", SelectItem{Expr: &Literal{Value: "1"}}.OutputName())
}

func TestAssetKind(t *testing.T) {
	assert.True(t, KindTable.IsDDL())
	assert.True(t, KindView.IsDDL())
	assert.False(t, KindStoredQuery.IsDDL())

	var k AssetKind
	assert.NoError(t, k.UnmarshalText([]byte("query")))
	assert.Equal(t, KindStoredQuery, k)
	assert.Error(t, k.UnmarshalText([]byte("procedure")))
}

func TestColumnDef_Constraint(t *testing.T) {
	col := &ColumnDef{Name: "id", Constraints: []*ColumnConstraint{{Kind: ConstraintPrimaryKey}, {Kind: ConstraintAutoIncrement}}}
	assert.True(t, col.Has(ConstraintAutoIncrement))
	assert.False(t, col.Has(ConstraintNotNull))
	assert.Equal(t, ConstraintPrimaryKey, col.Constraint(ConstraintPrimaryKey).Kind)
}

func TestTableName_Key(t *testing.T) {
	assert.Equal(t, "public.orders", (&TableName{Schema: "Public", Name: "ORDERS"}).Key())
	assert.Equal(t, "Order Items", (&TableName{Name: "Order Items", Quoted: true}).Key())
}

func TestAsset_FileLocation(t *testing.T) {
	a := &Asset{Line: 10, Column: 5}
	line, col := a.FileLocation(1, 3)
	assert.Equal(t, 10, line)
	assert.Equal(t, 7, col)

	line, col = a.FileLocation(3, 2)
	assert.Equal(t, 12, line)
	assert.Equal(t, 2, col)
}
