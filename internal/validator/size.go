package validator

import "encoding/base64"

// Largest accepted submission source in bytes
const MaxSourceSize = 1 << 16

// Largest compile output (decoded) stored for a test outcome
const MaxCompileOutputSize = 1 << 16

func ValidateSourceSize(dataLen int) bool {
	return dataLen > 0 && dataLen <= MaxSourceSize
}

// ensure an encoded compile output decodes to at most MaxCompileOutputSize bytes without decoding it
func ValidateCompileOutputSize(dataLen int) bool {
	return dataLen <= base64.StdEncoding.EncodedLen(MaxCompileOutputSize)
}
