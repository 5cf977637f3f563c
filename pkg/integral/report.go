package integral

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// WriteSelfTest prints the three states and the verdict.
func WriteSelfTest(w io.Writer, rep *SelfTestReport) {
	fmt.Fprintln(w, rep.Plaintext)
	fmt.Fprintln(w, rep.Ciphertext)
	fmt.Fprintln(w, rep.Decrypted)
	if rep.Passed {
		fmt.Fprintln(w, "Encryption and decryption are consistent. Test passed.")
	} else {
		fmt.Fprintln(w, "Encryption and decryption do not match. Test failed.")
	}
}

// WriteResult prints the counts and both sums of one trial.
func WriteResult(w io.Writer, res *Result) {
	fmt.Fprintf(w, "Number of plaintexts: %s\n", humanize.Comma(int64(res.PlaintextAssignments)))
	fmt.Fprintf(w, "Number of tweakeys: %s\n", humanize.Comma(int64(res.TweakeyAssignments)))
	fmt.Fprintf(w, "Encryptions: %s (%s)\n", humanize.Comma(int64(res.Encryptions)), res.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Control position: %d\n", res.Control)
	fmt.Fprintf(w, "Target sum: %d\n", res.TargetSum)
	fmt.Fprintf(w, "Random sum: %d\n", res.ControlSum)
}
