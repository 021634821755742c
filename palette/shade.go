package palette

// ShadeTransparent is the shade code legacy shaded moose used for a
// transparent pixel. Every shade row starts with a transparent slot so
// 0, 17, 34, 51, 68 and 85 are all transparent too.
const ShadeTransparent byte = 0

// ShadeToExtended maps a legacy shade code, computed as
// 1 + color + 17*shade, onto the palette. Shade 0 is the darkest and lands on
// the darkest extended row, shade 5 the lightest. The greys walk the
// grayscale ramp instead. Codes 100 and 101 (grey and lightgrey at shade 5)
// have no entry.
//
// TODO: the table is derived from the formula and the palette layout. Check
// it against the moose2 SHADE_TO_EXTENDED table and replace any entry that
// differs.
var ShadeToExtended = [Len]byte{
	// shade 0
	99, 93, 88, 24, 20, 16, 17, 25, 18, 18, 19, 21, 22, 23, 26, 90, 92,
	// shade 1
	99, 94, 89, 36, 32, 28, 29, 37, 30, 30, 31, 33, 34, 35, 38, 91, 93,
	// shade 2
	99, 95, 90, 48, 44, 40, 41, 49, 42, 42, 43, 45, 46, 47, 50, 92, 94,
	// shade 3
	99, 96, 91, 60, 56, 52, 53, 61, 54, 54, 55, 57, 58, 59, 62, 93, 95,
	// shade 4
	99, 97, 92, 72, 68, 64, 65, 73, 66, 66, 67, 69, 70, 71, 74, 94, 96,
	// shade 5
	99, 98, 93, 84, 80, 76, 77, 85, 78, 78, 79, 81, 82, 83, 86,
}
