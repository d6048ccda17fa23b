package utils

// ToStrings converts a slice of string-kinded values, such as protocol enums, to plain strings.
func ToStrings[T ~string](slice []T) []string {
	stringSlice := make([]string, 0, len(slice))
	for _, v := range slice {
		stringSlice = append(stringSlice, string(v))
	}
	return stringSlice
}
