package main

import (
	"fmt"
	"net/http"
	"os"
	"reflect"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ATSOTECK/pyhost/internal/pytype"
	"github.com/ATSOTECK/pyhost/internal/pytype/demo"
)

// typeSummary is the JSON shape returned by GET /types.
type typeSummary struct {
	Name     string   `json:"name"`
	Bases    []string `json:"bases"`
	Shape    string   `json:"shape"`
	Features []string `json:"features"`
}

// representationSummary is the JSON shape for each entry under
// GET /types (native-class -> representation) when ?representations=1.
type representationSummary struct {
	NativeClass string `json:"native_class"`
	Kind        string `json:"kind"`
	TypeName    string `json:"type_name"`
}

func shapeName(s pytype.TypeShape) string {
	switch s {
	case pytype.ShapeSimple:
		return "simple"
	case pytype.ShapeAdoptive:
		return "adoptive"
	case pytype.ShapeReplaceable:
		return "replaceable"
	default:
		return "unknown"
	}
}

func kindName(k pytype.RepresentationKind) string {
	switch k {
	case pytype.SimpleRepresentation:
		return "simple"
	case pytype.AdoptedRepresentation:
		return "adopted"
	case pytype.SharedRepresentation:
		return "shared"
	default:
		return "unknown"
	}
}

func featureNames(t *pytype.PyType) []string {
	all := []struct {
		flag pytype.FeatureFlags
		name string
	}{
		{pytype.BASETYPE, "BASETYPE"},
		{pytype.IMMUTABLE, "IMMUTABLE"},
		{pytype.REPLACEABLE, "REPLACEABLE"},
		{pytype.INSTANTIABLE, "INSTANTIABLE"},
		{pytype.SEQUENCE, "SEQUENCE"},
		{pytype.MAPPING, "MAPPING"},
		{pytype.METHOD_DESCR, "METHOD_DESCR"},
		{pytype.INT_SUBCLASS, "INT_SUBCLASS"},
		{pytype.STR_SUBCLASS, "STR_SUBCLASS"},
		{pytype.TYPE_SUBCLASS, "TYPE_SUBCLASS"},
		{pytype.HAS_SET, "HAS_SET"},
		{pytype.HAS_DELETE, "HAS_DELETE"},
		{pytype.HAS_GETITEM, "HAS_GETITEM"},
		{pytype.IS_DATA_DESCR, "IS_DATA_DESCR"},
	}
	var out []string
	for _, f := range all {
		if t.HasFeature(f.flag) {
			out = append(out, f.name)
		}
	}
	return out
}

func toSummary(t *pytype.PyType) typeSummary {
	bases := make([]string, 0, len(t.Bases()))
	for _, b := range t.Bases() {
		bases = append(bases, b.Name())
	}
	return typeSummary{
		Name:     t.Name(),
		Bases:    bases,
		Shape:    shapeName(t.Shape()),
		Features: featureNames(t),
	}
}

// server holds the live type core the handlers inspect; built once at
// startup from internal/pytype/demo, the same core cmd/typeshell drives.
type server struct {
	core *demo.Core
}

func (s *server) listTypes(c echo.Context) error {
	types := []*pytype.PyType{s.core.Object, s.core.Type, s.core.Int, s.core.Point, s.core.Dynamic, s.core.Leaf, s.core.Leaf2}
	out := make([]typeSummary, 0, len(types))
	for _, t := range types {
		out = append(out, toSummary(t))
	}

	if c.QueryParam("representations") != "" {
		reprs := make([]representationSummary, 0)
		for class, repr := range s.core.Registry.Snapshot() {
			reprs = append(reprs, representationSummary{
				NativeClass: classLabel(class),
				Kind:        kindName(repr.Kind()),
			})
		}
		return c.JSON(http.StatusOK, echo.Map{"types": out, "representations": reprs})
	}
	return c.JSON(http.StatusOK, out)
}

func classLabel(class reflect.Type) string {
	if class == nil {
		return "<nil>"
	}
	return class.String()
}

func (s *server) typeMRO(c echo.Context) error {
	name := c.Param("name")
	t, ok := resolve(s.core, name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("no such type: %s", name))
	}
	names := make([]string, 0, len(t.MRO()))
	for _, m := range t.MRO() {
		names = append(names, m.Name())
	}
	return c.JSON(http.StatusOK, echo.Map{"name": t.Name(), "mro": names})
}

func resolve(core *demo.Core, name string) (*pytype.PyType, bool) {
	for _, t := range []*pytype.PyType{core.Object, core.Type, core.Int, core.Point, core.Dynamic, core.Leaf, core.Leaf2} {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

func main() {
	addr := ":8089"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	core, err := demo.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build type core: %v\n", err)
		os.Exit(1)
	}
	s := &server{core: core}

	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	e.GET("/types", s.listTypes)
	e.GET("/types/:name/mro", s.typeMRO)

	e.Logger.Fatal(e.Start(addr))
}
