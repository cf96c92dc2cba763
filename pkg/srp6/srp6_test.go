package srp6_test

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/aussiebroadwan/realmauth/pkg/srp6"
	"github.com/stretchr/testify/require"
)

func sequentialSalt() []byte {
	salt := make([]byte, srp6.SaltSize)
	for i := range salt {
		salt[i] = byte(i)
	}
	return salt
}

func TestBytesToInt(t *testing.T) {
	require.Equal(t, int64(0), srp6.BytesToInt(nil).Int64())
	require.Equal(t, int64(1), srp6.BytesToInt([]byte{0x01, 0x00}).Int64())
	require.Equal(t, int64(0x0201), srp6.BytesToInt([]byte{0x01, 0x02}).Int64())
}

func TestIntToBytes(t *testing.T) {
	t.Run("zero pads the high end", func(t *testing.T) {
		b, err := srp6.IntToBytes(big.NewInt(0x0201), 4)
		require.NoError(t, err)
		require.Equal(t, []byte{0x01, 0x02, 0x00, 0x00}, b)
	})

	t.Run("overflow fails", func(t *testing.T) {
		_, err := srp6.IntToBytes(big.NewInt(0x010000), 2)
		require.ErrorIs(t, err, srp6.ErrOverflow)
	})

	t.Run("negative fails", func(t *testing.T) {
		_, err := srp6.IntToBytes(big.NewInt(-1), 2)
		require.ErrorIs(t, err, srp6.ErrNegative)
	})
}

func TestCodecRoundTrip(t *testing.T) {
	for _, width := range []int{1, 2, 20, 32, 33} {
		for range 50 {
			b := make([]byte, width)
			_, err := rand.Read(b)
			require.NoError(t, err)

			out, err := srp6.IntToBytes(srp6.BytesToInt(b), width)
			require.NoError(t, err)
			require.Equal(t, b, out)
		}
	}
}

func TestModPow(t *testing.T) {
	t.Run("zero exponent is one", func(t *testing.T) {
		for _, g := range []int64{0, 2, 7, 1 << 40} {
			require.Equal(t, int64(1), srp6.ModPow(big.NewInt(g), big.NewInt(0), srp6.N).Int64())
			require.Equal(t, int64(1), srp6.ModPow(big.NewInt(g), big.NewInt(0), big.NewInt(97)).Int64())
		}
	})

	t.Run("matches math/big", func(t *testing.T) {
		for range 25 {
			e, err := rand.Int(rand.Reader, srp6.N)
			require.NoError(t, err)
			want := new(big.Int).Exp(srp6.G, e, srp6.N)
			require.Zero(t, want.Cmp(srp6.ModPow(srp6.G, e, srp6.N)))
		}
	})

	t.Run("base is reduced first", func(t *testing.T) {
		base := new(big.Int).Add(srp6.N, big.NewInt(7))
		e := big.NewInt(12345)
		require.Zero(t, srp6.ModPow(base, e, srp6.N).Cmp(srp6.ModPow(srp6.G, e, srp6.N)))
	})

	t.Run("regression vector", func(t *testing.T) {
		want, _ := new(big.Int).SetString("6f0746bbdd48a607616d60c5da58d1ba9eab11d0a6c137d976872a53a1ed8b54", 16)
		require.Zero(t, want.Cmp(srp6.ModPow(srp6.G, big.NewInt(65537), srp6.N)))
	})
}

func TestDeriveVerifier(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		salt     []byte
		want     string
	}{
		{
			name:     "sequential salt",
			username: "BOB",
			password: "SECRET123",
			salt:     sequentialSalt(),
			want:     "f3edd40b82e37b86939b3e3100e3345f1a772df0e3d4eccd2302955110270059",
		},
		{
			name:     "case folded before hashing",
			username: "bob",
			password: "secret123",
			salt:     sequentialSalt(),
			want:     "f3edd40b82e37b86939b3e3100e3345f1a772df0e3d4eccd2302955110270059",
		},
		{
			name:     "zero salt",
			username: "PLAYER",
			password: "HUNTER2",
			salt:     make([]byte, srp6.SaltSize),
			want:     "f5d2c4d683287497b16bc2b427defdf1b6691faf61e3cecd0b81c773754f515b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := srp6.DeriveVerifier(tt.username, tt.password, tt.salt)
			require.NoError(t, err)
			require.Len(t, v, srp6.VerifierSize)
			require.Equal(t, tt.want, hex.EncodeToString(v))
		})
	}

	t.Run("short salt rejected", func(t *testing.T) {
		_, err := srp6.DeriveVerifier("BOB", "SECRET", make([]byte, 16))
		require.ErrorIs(t, err, srp6.ErrInvalidSalt)
	})
}

func TestGenerateAndVerify(t *testing.T) {
	creds, err := srp6.GenerateCredentials("BOB", "SECRET123")
	require.NoError(t, err)
	require.Len(t, creds.Salt, srp6.SaltSize)
	require.Len(t, creds.Verifier, srp6.VerifierSize)

	require.True(t, srp6.Verify("BOB", "SECRET123", creds.Salt, creds.Verifier))
	require.True(t, srp6.Verify("bob", "secret123", creds.Salt, creds.Verifier))
	require.False(t, srp6.Verify("BOB", "SECRET124", creds.Salt, creds.Verifier))
	require.False(t, srp6.Verify("ALICE", "SECRET123", creds.Salt, creds.Verifier))

	t.Run("every flipped bit fails", func(t *testing.T) {
		for i := range len(creds.Verifier) * 8 {
			tampered := bytes.Clone(creds.Verifier)
			tampered[i/8] ^= 1 << (i % 8)
			require.False(t, srp6.Verify("BOB", "SECRET123", creds.Salt, tampered), "bit %d", i)
		}
	})

	t.Run("malformed material never verifies", func(t *testing.T) {
		require.False(t, srp6.Verify("BOB", "SECRET123", creds.Salt, creds.Verifier[:31]))
		require.False(t, srp6.Verify("BOB", "SECRET123", creds.Salt[:31], creds.Verifier))
	})

	t.Run("fresh salt per call", func(t *testing.T) {
		other, err := srp6.GenerateCredentials("BOB", "SECRET123")
		require.NoError(t, err)
		require.NotEqual(t, creds.Salt, other.Salt)
		require.NotEqual(t, creds.Verifier, other.Verifier)
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestHasherDeterministicSource(t *testing.T) {
	h := &srp6.Hasher{Rand: bytes.NewReader(sequentialSalt())}

	creds, err := h.Generate("BOB", "SECRET123")
	require.NoError(t, err)
	require.Equal(t, sequentialSalt(), creds.Salt)
	require.Equal(t, "f3edd40b82e37b86939b3e3100e3345f1a772df0e3d4eccd2302955110270059", hex.EncodeToString(creds.Verifier))

	_, err = (&srp6.Hasher{Rand: failingReader{}}).Generate("BOB", "SECRET123")
	require.Error(t, err)
}
