package xlsxparser

// GuessCell exposes guessCell to the external tests.
var GuessCell = guessCell
