package descriptor

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type vector struct {
	xpub              string
	defaultDescriptor string
	mainDescriptor    string
	changeDescriptor  string
	mainAddress       string
	changeAddress     string
	network           *chaincfg.Params
}

var vectors = []vector{
	{
		xpub:              "xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs",
		defaultDescriptor: "pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/<0;1>/*)",
		mainDescriptor:    "pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/0/*)#32jmvyn7",
		changeDescriptor:  "pkh(xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs/1/*)#q7h633rx",
		mainAddress:       "1JHazecJrjbxBMQgRcyV3JCQJwVbHBjH5t",
		changeAddress:     "1JbCXSeZHizJDQANsgtLBjo5y24JNMyGTB",
		network:           &chaincfg.MainNetParams,
	},
	{
		xpub:              "ypub6XmBfjfmuYD1bjv5RCEHU8jD1NPGZh6NRTGDB8ndQsd7MPnzhDhAsdrF9sK8Z4G9FvcFBHoGsZqhsDHtenca3K5QigYWVKXvkAx6HBxVGYM",
		defaultDescriptor: "sh(wpkh(xpub6CvvN4zrkrfXkSixaqSfG3dhqQEpd56sWLjzPjtk2sFEJHymSZXcFaC78fMYZ9cDrHVSRpCiQuV9yvgKw6CZF5PorLr5uQiSUStStZjpSSV/<0;1>/*))",
		mainDescriptor:    "sh(wpkh(xpub6CvvN4zrkrfXkSixaqSfG3dhqQEpd56sWLjzPjtk2sFEJHymSZXcFaC78fMYZ9cDrHVSRpCiQuV9yvgKw6CZF5PorLr5uQiSUStStZjpSSV/0/*))#657qlqhe",
		changeDescriptor:  "sh(wpkh(xpub6CvvN4zrkrfXkSixaqSfG3dhqQEpd56sWLjzPjtk2sFEJHymSZXcFaC78fMYZ9cDrHVSRpCiQuV9yvgKw6CZF5PorLr5uQiSUStStZjpSSV/1/*))#uhk9ydud",
		mainAddress:       "31sQy1RG4Y6sCtCpmXrtiJooqzBozRUTU6",
		changeAddress:     "33kzJbaR4EDzEoigsKuLata1svSqNGsdSo",
		network:           &chaincfg.MainNetParams,
	},
	{
		xpub:              "zpub6rFvSvP5VbpXwej2L5WseLfxfdUzSczs9DK9v9mpXgXNqjFhtfUTRGkQKr7sXKNyrrzhd2LCysGqts1oT3b1PJji16xWzcmNMfhmZ8kkLZ1",
		defaultDescriptor: "wpkh(xpub6CbPqb3FCEjaF4LnfMwdEAUxKhC6ZP1sJzGiMMz3mfmcjXdFPM9LB9S8HSChXW593am685964YZk8Hng1ekynqNWGRZfpo8PpDaUmyvQqvY/<0;1>/*)",
		mainDescriptor:    "wpkh(xpub6CbPqb3FCEjaF4LnfMwdEAUxKhC6ZP1sJzGiMMz3mfmcjXdFPM9LB9S8HSChXW593am685964YZk8Hng1ekynqNWGRZfpo8PpDaUmyvQqvY/0/*)#z2djk607",
		changeDescriptor:  "wpkh(xpub6CbPqb3FCEjaF4LnfMwdEAUxKhC6ZP1sJzGiMMz3mfmcjXdFPM9LB9S8HSChXW593am685964YZk8Hng1ekynqNWGRZfpo8PpDaUmyvQqvY/1/*)#n7gnt0lx",
		mainAddress:       "bc1qz4ta3h4ga6hdqa090wfpr83asyz5z40t272wez",
		changeAddress:     "bc1qjeq39p3mpvmwqwkpaqe9hdjgfhfa8w5z87tnp4",
		network:           &chaincfg.MainNetParams,
	},
	{
		xpub:              "tpubDC73PMTHeKDXnFwNFz8CLBy2VVx4D85WW2vbzwVLwCD9zkQ6Vj97muhLRTbKvmue1PyVQLwizvBW6v2SD1LnzbeuHnRsDYQZGE8urTZHMn5",
		defaultDescriptor: "pkh(tpubDC73PMTHeKDXnFwNFz8CLBy2VVx4D85WW2vbzwVLwCD9zkQ6Vj97muhLRTbKvmue1PyVQLwizvBW6v2SD1LnzbeuHnRsDYQZGE8urTZHMn5/<0;1>/*)",
		mainDescriptor:    "pkh(tpubDC73PMTHeKDXnFwNFz8CLBy2VVx4D85WW2vbzwVLwCD9zkQ6Vj97muhLRTbKvmue1PyVQLwizvBW6v2SD1LnzbeuHnRsDYQZGE8urTZHMn5/0/*)#8zp7ryrl",
		changeDescriptor:  "pkh(tpubDC73PMTHeKDXnFwNFz8CLBy2VVx4D85WW2vbzwVLwCD9zkQ6Vj97muhLRTbKvmue1PyVQLwizvBW6v2SD1LnzbeuHnRsDYQZGE8urTZHMn5/1/*)#kkyl73n8",
		mainAddress:       "mhk8YjtyHigqGMiEGaf8cnNW9Game9exC6",
		changeAddress:     "mmuYagUFFQtAzw8Ts7afED6HFboCy4e8WR",
		network:           &chaincfg.TestNet3Params,
	},
	{
		xpub:              "upub5E3Vhaq9uVmz426B5FME1csAY8tvQ8vRqt7WnGyiJ4CoknpyM2WJk4B6uSh2kud3r8RJHTzS5jLFnWNRThKZyew6tDX2eXGMyTvfa8AVwyK",
		defaultDescriptor: "sh(wpkh(tpubDCuv8pfb4pMsshrP2WhBqoV3PARvDPPz8rGUV1iWmz6LfNwNBDr5kgpMD6eaH8Y3rxJd9UHyzpDx8Yhj1eQrFoSCYqMc5nP4Nbi1VvJmNco/<0;1>/*))",
		mainDescriptor:    "sh(wpkh(tpubDCuv8pfb4pMsshrP2WhBqoV3PARvDPPz8rGUV1iWmz6LfNwNBDr5kgpMD6eaH8Y3rxJd9UHyzpDx8Yhj1eQrFoSCYqMc5nP4Nbi1VvJmNco/0/*))#sh4fvsj4",
		changeDescriptor:  "sh(wpkh(tpubDCuv8pfb4pMsshrP2WhBqoV3PARvDPPz8rGUV1iWmz6LfNwNBDr5kgpMD6eaH8Y3rxJd9UHyzpDx8Yhj1eQrFoSCYqMc5nP4Nbi1VvJmNco/1/*))#k5avhaep",
		mainAddress:       "2NBfJvMZadWb8mwtV3F4FXTqAJs3pkYNdn8",
		changeAddress:     "2MznomgtTHMBvsMqPwwE3sSLzj6F8w3Mnyi",
		network:           &chaincfg.TestNet3Params,
	},
	{
		xpub:              "vpub5Zrsj9pYeJLwTfggbSQYZDdpEpZ4M1qB1EUKfXB9bjsookSNjM6c6eFTYfjb8KcGJV4ZqAYScBvC7hyDbbWKCHVcC6RETNJUfwUFvnHJM8Y",
		defaultDescriptor: "wpkh(tpubDDu2riz4ewPMS4FmiLxtBKABuswcDeKEP674as24hfPTfEjYJtGpVDEZq7jYedsLufq5whFS4cTLaTgxRrBagCK6zNZPJibgoMBxTvUcVFf/<0;1>/*)",
		mainDescriptor:    "wpkh(tpubDDu2riz4ewPMS4FmiLxtBKABuswcDeKEP674as24hfPTfEjYJtGpVDEZq7jYedsLufq5whFS4cTLaTgxRrBagCK6zNZPJibgoMBxTvUcVFf/0/*)#f8w55tty",
		changeDescriptor:  "wpkh(tpubDDu2riz4ewPMS4FmiLxtBKABuswcDeKEP674as24hfPTfEjYJtGpVDEZq7jYedsLufq5whFS4cTLaTgxRrBagCK6zNZPJibgoMBxTvUcVFf/1/*)#cnt4f7mu",
		mainAddress:       "tb1q7e5q2y0mpvesst3jxhe45q0e2q9gdkfd6zxzqa",
		changeAddress:     "tb1qzplphjt68gs0lwvxrq70t9j9cva8ky7r7ucz2g",
		network:           &chaincfg.TestNet3Params,
	},
}

func TestParseAndDeriveVectors(t *testing.T) {
	for _, v := range vectors {
		v := v
		t.Run(v.mainDescriptor, func(t *testing.T) {
			descs, err := Parse(v.defaultDescriptor, v.network)
			require.NoError(t, err)
			require.Len(t, descs, 2)

			assert.Equal(t, v.mainDescriptor, descs[0].Expression)
			assert.Equal(t, v.changeDescriptor, descs[1].Expression)

			mainAddr, err := descs[0].Address(0)
			require.NoError(t, err)
			assert.Equal(t, v.mainAddress, mainAddr.EncodeAddress())

			changeAddr, err := descs[1].Address(0)
			require.NoError(t, err)
			assert.Equal(t, v.changeAddress, changeAddr.EncodeAddress())
		})
	}
}

func TestParseRegtestUsesRegtestAddressEncoding(t *testing.T) {
	xpub := "vpub5Zrsj9pYeJLwTfggbSQYZDdpEpZ4M1qB1EUKfXB9bjsookSNjM6c6eFTYfjb8KcGJV4ZqAYScBvC7hyDbbWKCHVcC6RETNJUfwUFvnHJM8Y"
	descs, err := Parse("wpkh("+xpub+"/<0;1>/*)", &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	require.Len(t, descs, 2)

	mainAddr, err := descs[0].Address(0)
	require.NoError(t, err)
	assert.Equal(t, "bcrt1q7e5q2y0mpvesst3jxhe45q0e2q9gdkfdctl0h5", mainAddr.EncodeAddress())

	changeAddr, err := descs[1].Address(0)
	require.NoError(t, err)
	assert.Equal(t, "bcrt1qzplphjt68gs0lwvxrq70t9j9cva8ky7ru4p0ap", changeAddr.EncodeAddress())
}

func TestParseRejectsNetworkMismatch(t *testing.T) {
	xpub := "xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs"
	_, err := Parse("pkh("+xpub+"/<0;1>/*)", &chaincfg.TestNet3Params)
	require.Error(t, err)
	assert.IsType(t, &Error{}, err)
}

func TestParseRejectsBadChecksum(t *testing.T) {
	xpub := "xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs"
	_, err := Parse("pkh("+xpub+"/0/*)#aaaaaaaa", &chaincfg.MainNetParams)
	require.Error(t, err)
}

func TestParseRejectsHardenedPathSegment(t *testing.T) {
	xpub := "xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs"
	_, err := Parse("pkh("+xpub+"/0'/*)", &chaincfg.MainNetParams)
	require.Error(t, err)
}

func TestParseAcceptsDescriptorWithoutChecksum(t *testing.T) {
	xpub := "xpub6CPimhNogJosVzpueNmrWEfSHc2YTXG1ZyE6TBV4Nx6UxZ7zKSGYv9hKxNjiFY5o1vz7QeZa2m6vQmyndDrkECk8cShWYWxe1gqa1xJEkgs"
	descs, err := Parse("pkh("+xpub+"/0/*)", &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Len(t, descs, 1)
}

func TestDeriveScriptIsDeterministic(t *testing.T) {
	xpub := "zpub6rFvSvP5VbpXwej2L5WseLfxfdUzSczs9DK9v9mpXgXNqjFhtfUTRGkQKr7sXKNyrrzhd2LCysGqts1oT3b1PJji16xWzcmNMfhmZ8kkLZ1"
	descs, err := Parse("wpkh("+xpub+"/0/*)", &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Len(t, descs, 1)

	a, err := descs[0].DeriveScript(5)
	require.NoError(t, err)
	b, err := descs[0].DeriveScript(5)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := descs[0].DeriveScript(6)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestParseFixedPubKeyDescriptor(t *testing.T) {
	descs, err := Parse("pkh(0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798)", &chaincfg.MainNetParams)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	assert.False(t, descs[0].IsWildcard())

	script, err := descs[0].DeriveScript(0)
	require.NoError(t, err)
	require.NotEmpty(t, script)
}
