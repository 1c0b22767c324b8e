package section

const (
	// Bit masks
	EndiannessMask   = 0x0002 // Mask for endianness bit (bit 1)
	ReservedBitsMask = 0x000D // Mask for reserved bits (bits 0, 2, 3)
	MagicNumberMask  = 0xFFF0 // Mask for magic number (bits 4-15)

	// Magic numbers (bits 4-15)
	MagicContainerV1Opt = 0xA710 // MagicContainerV1Opt identifies a version 1 columnar container.
)

// offset and section sizes in the container file
const (
	HeaderSize = 32 // fixed header size in bytes

	// WriterVersion is the container writer version stamped into every header.
	WriterVersion = 2
	// MinClonableWriterVersion is the oldest writer whose baskets may be copied verbatim.
	MinClonableWriterVersion = 2
)
