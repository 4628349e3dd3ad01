package genome

// Complement returns the nucleotide complement of an allele (A<->T, C<->G).
// Characters outside the alphabet pass through unchanged. Complementing
// twice returns the original allele.
func Complement(allele string) string {
	out := make([]byte, len(allele))
	for i := 0; i < len(allele); i++ {
		out[i] = complementBase(allele[i])
	}
	return string(out)
}

// ReverseComplement returns the reverse complement of a sequence.
func ReverseComplement(seq string) string {
	out := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		out[len(seq)-1-i] = complementBase(seq[i])
	}
	return string(out)
}

func complementBase(b byte) byte {
	switch b {
	case 'A':
		return 'T'
	case 'T':
		return 'A'
	case 'C':
		return 'G'
	case 'G':
		return 'C'
	case 'a':
		return 't'
	case 't':
		return 'a'
	case 'c':
		return 'g'
	case 'g':
		return 'c'
	}
	return b
}
