package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenquant/tradecore/internal/catalog"
	"github.com/lumenquant/tradecore/internal/domain"
	"github.com/lumenquant/tradecore/internal/state"
)

func TestApproveAllApprovesEverything(t *testing.T) {
	cat, err := catalog.New([]catalog.ExchangeSpec{{ID: "EX"}})
	require.NoError(t, err)
	s := state.New(cat)

	opens := []domain.OrderRequestOpen{{Key: domain.OrderKey{ClientID: "a"}}, {Key: domain.OrderKey{ClientID: "b"}}}
	approved, refused := ApproveAll{}.Check(opens, s)
	assert.Equal(t, opens, approved)
	assert.Empty(t, refused)

	cancels := []domain.OrderRequestCancel{{Key: domain.OrderKey{ClientID: "a"}}}
	approvedCancels, refusedCancels := ApproveAll{}.CheckCancels(cancels, s)
	assert.Equal(t, cancels, approvedCancels)
	assert.Empty(t, refusedCancels)
}
