package ethereum_test

import (
	"math/big"
	"testing"

	ecommon "github.com/ethereum/go-ethereum/common"
	etypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowfork/ethereum-light-client/chain/ethereum"
)

// To retrieve test data:
// curl https://mainnet.infura.io/v3/<PROJECT_ID> \
//     -X POST \
//     -H "Content-Type: application/json" \
//     -d '{"jsonrpc":"2.0","method":"eth_getBlockByNumber","params": ["0xA93972",false],"id":1}'

func gethHeader11090290(t *testing.T) *etypes.Header {
	json := `{
		"difficulty": "0xbc140caa61087",
		"extraData": "0x65746865726d696e652d61736961312d33",
		"gasLimit": "0xbe8c19",
		"gasUsed": "0x0",
		"hash": "0x0f9bdc91c2e0140acb873330742bda8c8181fa3add91fe7ae046251679cedef7",
		"logsBloom": "0x00000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000",
		"miner": "0xea674fdde714fd979de3edf0f56aa9716b898ec8",
		"mixHash": "0xbe3adfb0087be62b28b716e2cdf3c79329df5caa04c9eee035d35b5d52102815",
		"nonce": "0x6935bbe7b63c4f8e",
		"number": "0xa93972",
		"parentHash": "0xbede0bddd6f32c895fc505ffe0c39d9bde58e9a5272f31a3dee448b796edcbe3",
		"receiptsRoot": "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421",
		"sha3Uncles": "0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347",
		"size": "0x217",
		"stateRoot": "0x7dcb8aca872b712bad81df34a89d4efedc293566ffc3eeeb5cbcafcc703e42c9",
		"timestamp": "0x5f8e4b91",
		"totalDifficulty": "0x3d7b646a5ba5b2622ec",
		"transactionsRoot": "0x56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421"
	}`

	var header etypes.Header
	require.NoError(t, header.UnmarshalJSON([]byte(json)))
	return &header
}

func TestHeaderRoundTripKeepsHash(t *testing.T) {
	header := gethHeader11090290(t)
	expected := ecommon.HexToHash("0f9bdc91c2e0140acb873330742bda8c8181fa3add91fe7ae046251679cedef7")
	require.Equal(t, expected, header.Hash())

	encoded, err := ethereum.EncodeHeader(header)
	require.NoError(t, err)

	decoded, err := ethereum.DecodeHeader(encoded)
	require.NoError(t, err)
	assert.Equal(t, expected, decoded.Hash())
	assert.Equal(t, header.ParentHash, decoded.ParentHash)

	id, err := ethereum.MakeHeaderID(decoded)
	require.NoError(t, err)
	assert.Equal(t, ethereum.HeaderID{Number: 11090290, Hash: expected}, id)
}

func TestDecodeHeaderRejectsGarbage(t *testing.T) {
	_, err := ethereum.DecodeHeader([]byte{0xc0})
	assert.Error(t, err)

	_, err = ethereum.DecodeHeader(nil)
	assert.Error(t, err)

	// The header hash is taken over the decoded value, so input with
	// trailing bytes must not decode.
	encoded, err := ethereum.EncodeHeader(gethHeader11090290(t))
	require.NoError(t, err)
	_, err = ethereum.DecodeHeader(append(encoded, 0x80))
	assert.Error(t, err)
}

func TestMakeHeaderIDRejectsHugeNumber(t *testing.T) {
	header := &etypes.Header{Number: new(big.Int).Lsh(big.NewInt(1), 70)}
	_, err := ethereum.MakeHeaderID(header)
	assert.Error(t, err)
}
