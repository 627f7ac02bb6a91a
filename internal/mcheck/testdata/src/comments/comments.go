// Code that is not generated so that the comments are checked.
package comments

/* This block comment is much longer than the maximum length allowed for a comment line */ // want `Comment too long`

// short comment
var value = 42

//go:generate echo "this generate directive is long enough to go beyond the maximum length"
