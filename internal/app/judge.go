package app

// UserCorrect reports whether the selected sample is the correct one. Selections outside
// the round are simply wrong.
func UserCorrect(correctID, selectedID int) bool {
	return correctID == selectedID
}
