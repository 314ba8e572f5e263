package metadata

import goexif "github.com/rwcarlsen/goexif/exif"

// baselineTags names the TIFF 6.0 and JPEG-in-TIFF tags that goexif's field table leaves
// out. They only ever appear in IFD0.
var baselineTags = map[uint16]string{
	0x00FE: "NewSubfileType",
	0x00FF: "SubfileType",
	0x0107: "Thresholding",
	0x0108: "CellWidth",
	0x0109: "CellLength",
	0x010A: "FillOrder",
	0x010D: "DocumentName",
	0x0111: "StripOffsets",
	0x0116: "RowsPerStrip",
	0x0117: "StripByteCounts",
	0x0118: "MinSampleValue",
	0x0119: "MaxSampleValue",
	0x011C: "PlanarConfiguration",
	0x011D: "PageName",
	0x011E: "XPosition",
	0x011F: "YPosition",
	0x0122: "GrayResponseUnit",
	0x0123: "GrayResponseCurve",
	0x0124: "T4Options",
	0x0125: "T6Options",
	0x0129: "PageNumber",
	0x012D: "TransferFunction",
	0x013C: "HostComputer",
	0x013D: "Predictor",
	0x013E: "WhitePoint",
	0x013F: "PrimaryChromaticities",
	0x0140: "ColorMap",
	0x0141: "HalftoneHints",
	0x0142: "TileWidth",
	0x0143: "TileLength",
	0x0144: "TileOffsets",
	0x0145: "TileByteCounts",
	0x014C: "InkSet",
	0x0150: "DotRange",
	0x0152: "ExtraSamples",
	0x0153: "SampleFormat",
	0x0154: "SMinSampleValue",
	0x0155: "SMaxSampleValue",
	0x0200: "JPEGProc",
	0x0201: "JPEGInterchangeFormat",
	0x0202: "JPEGInterchangeFormatLength",
	0x0211: "YCbCrCoefficients",
	0x0212: "YCbCrSubSampling",
	0x0213: "YCbCrPositioning",
	0x0214: "ReferenceBlackWhite",
	0x02BC: "XMLPacket",
	0x4746: "Rating",
	0x4749: "RatingPercent",
	0x8298: "Copyright",
	0x83BB: "IPTCNAA",
	0x8649: "ImageResources",
	0x8773: "InterColorProfile",
	0x9C9B: "XPTitle",
	0x9C9C: "XPComment",
	0x9C9D: "XPAuthor",
	0x9C9E: "XPKeywords",
	0x9C9F: "XPSubject",
	0xC4A5: "PrintImageMatching",
}

// subIFDGroups labels unnamed tags found in the directories IFD0 points to.
var subIFDGroups = []struct {
	pointer goexif.FieldName
	group   string
}{
	{goexif.ExifIFDPointer, "EXIF"},
	{goexif.GPSInfoIFDPointer, "GPS"},
	{goexif.InteroperabilityIFDPointer, "Interoperability"},
}
