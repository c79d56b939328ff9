package export

import "fmt"

// CRS identifies the coordinate system stamped on exported datasets.
// It is metadata only: record coordinates are never transformed, the
// WKT just rides along as the .prj sidecar.
type CRS struct {
	Code  int
	Label string
	WKT   string
}

// String ...
func (c CRS) String() string {
	return fmt.Sprintf("EPSG:%d", c.Code)
}

// Catalog is the fixed set of coordinate systems offered by the picker.
var Catalog = []CRS{
	{4326, "WGS 84 (EPSG:4326)", wkt4326},
	{3857, "WGS 84 / Web Mercator (EPSG:3857)", wkt3857},
	{4269, "NAD 83 (EPSG:4269)", wkt4269},
	{25832, "ETRS89 / UTM zone 32N (EPSG:25832)", wkt25832},
}

// Lookup resolves an EPSG code against the catalog.
func Lookup(code int) (CRS, error) {
	for _, c := range Catalog {
		if c.Code == code {
			return c, nil
		}
	}
	return CRS{}, fmt.Errorf("unsupported coordinate system EPSG:%d", code)
}

const (
	wkt4326 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

	wkt3857 = `PROJCS["WGS_1984_Web_Mercator_Auxiliary_Sphere",GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]],PROJECTION["Mercator_Auxiliary_Sphere"],PARAMETER["False_Easting",0],PARAMETER["False_Northing",0],PARAMETER["Central_Meridian",0],PARAMETER["Standard_Parallel_1",0],PARAMETER["Auxiliary_Sphere_Type",0],UNIT["Meter",1]]`

	wkt4269 = `GEOGCS["GCS_North_American_1983",DATUM["D_North_American_1983",SPHEROID["GRS_1980",6378137,298.257222101]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

	wkt25832 = `PROJCS["ETRS_1989_UTM_Zone_32N",GEOGCS["GCS_ETRS_1989",DATUM["D_ETRS_1989",SPHEROID["GRS_1980",6378137,298.257222101]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]],PROJECTION["Transverse_Mercator"],PARAMETER["False_Easting",500000],PARAMETER["False_Northing",0],PARAMETER["Central_Meridian",9],PARAMETER["Scale_Factor",0.9996],PARAMETER["Latitude_Of_Origin",0],UNIT["Meter",1]]`
)
