package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/jwt"
)

func TestGenerateAndParse(t *testing.T) {
	id := jwt.Identity{UserID: "u1", CompanyID: "c1", Role: jwt.RoleOperator}
	token, err := jwt.Generate("secret", "stock-ledger", id, 5)
	require.NoError(t, err)

	got, err := jwt.Parse("secret", "stock-ledger", token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParse_Rejects(t *testing.T) {
	token, err := jwt.Generate("secret", "otro", jwt.Identity{UserID: "u1", CompanyID: "c1"}, 5)
	require.NoError(t, err)

	_, err = jwt.Parse("secret", "stock-ledger", token)
	assert.Error(t, err, "emisor distinto")

	_, err = jwt.Parse("otra", "", token)
	assert.Error(t, err, "firma incorrecta")

	expired, err := jwt.Generate("secret", "", jwt.Identity{UserID: "u1", CompanyID: "c1"}, -1)
	require.NoError(t, err)
	_, err = jwt.Parse("secret", "", expired)
	assert.Error(t, err, "expirado")

	noCompany, err := jwt.Generate("secret", "", jwt.Identity{UserID: "u1"}, 5)
	require.NoError(t, err)
	_, err = jwt.Parse("secret", "", noCompany)
	assert.Error(t, err, "sin empresa")
}
