package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/matchgate/internal/domain"
)

func TestParseMatchType(t *testing.T) {
	for _, mt := range domain.MatchTypes {
		parsed, err := domain.ParseMatchType(string(mt))
		require.NoError(t, err)
		assert.Equal(t, mt, parsed)
	}

	_, err := domain.ParseMatchType("3v3")
	assert.ErrorIs(t, err, domain.ErrInvalidMatchType)
	_, err = domain.ParseMatchType("")
	assert.ErrorIs(t, err, domain.ErrInvalidMatchType)
}

func TestRequiredPlayers(t *testing.T) {
	cases := map[domain.MatchType]int{
		domain.OneVsOne:   2,
		domain.TwoVsTwo:   4,
		domain.FiveVsFive: 10,
	}
	for mt, want := range cases {
		got, err := mt.RequiredPlayers()
		require.NoError(t, err)
		assert.Equal(t, want, got)

		size, err := mt.TeamSize()
		require.NoError(t, err)
		assert.Equal(t, want/2, size)
	}

	_, err := domain.MatchType("6v6").RequiredPlayers()
	assert.ErrorIs(t, err, domain.ErrInvalidMatchType)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, domain.CodeOK, domain.CodeOf(nil))
	assert.Equal(t, domain.CodeInvalidMessage, domain.CodeOf(domain.ErrInvalidMessage))
	assert.Equal(t, domain.CodeMatchNotFound, domain.CodeOf(domain.ErrMatchNotFound))
	assert.Equal(t, domain.CodeUserAlreadyInMatch, domain.CodeOf(domain.ErrUserAlreadyInMatch))

	// Wrapped sentinels keep their code; everything else is a store failure.
	wrapped := errors.Join(errors.New("ctx"), domain.ErrMatchNotReady)
	assert.Equal(t, domain.CodeMatchNotReady, domain.CodeOf(wrapped))
	assert.Equal(t, domain.CodeStore, domain.CodeOf(errors.New("boom")))
}
