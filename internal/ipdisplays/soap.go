package ipdisplays

import (
	"encoding/xml"
	"strings"
)

// Namespace of the SignSvr SOAP service.
const Namespace = "urn:SignSvr"

type envelope struct {
	XMLName xml.Name `xml:"soap:Envelope"`
	Soap    string   `xml:"xmlns:soap,attr"`
	Body    body     `xml:"soap:Body"`
}

type body struct {
	Content any
}

type setLayoutStateRequest struct {
	XMLName    xml.Name `xml:"SetLayoutState"`
	NS         string   `xml:"xmlns,attr"`
	LayoutName string   `xml:"layoutName"`
	State      int      `xml:"state"`
}

type updateDataItemRequest struct {
	XMLName xml.Name `xml:"UpdateDataItemValueByName"`
	NS      string   `xml:"xmlns,attr"`
	Name    string   `xml:"dataItemName"`
	Value   string   `xml:"value"`
}

// The batch payload is an XML document carried as a string argument.
type updateDataItemsRequest struct {
	XMLName   xml.Name `xml:"UpdateDataItemValues"`
	NS        string   `xml:"xmlns,attr"`
	DataItems string   `xml:"dataItemsXml"`
}

type getLayoutsRequest struct {
	XMLName xml.Name `xml:"GetLayouts"`
	NS      string   `xml:"xmlns,attr"`
}

type setSignBrightnessRequest struct {
	XMLName    xml.Name `xml:"SetSignBrightness"`
	NS         string   `xml:"xmlns,attr"`
	Brightness int      `xml:"brightness"`
}

// DataItems is the document sent by UpdateDataItemValues.
type DataItems struct {
	XMLName xml.Name   `xml:"DataItems"`
	Items   []DataItem `xml:"DataItem"`
}

// DataItem is one named value on the sign.
type DataItem struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

// Layouts is the document returned by GetLayouts.
type Layouts struct {
	XMLName xml.Name `xml:"Layouts"`
	Layouts []Layout `xml:"Layout"`
}

// Layout is one layout configured on the sign.
type Layout struct {
	RecID   string `xml:"recID,attr"`
	Name    string `xml:"name,attr"`
	Order   string `xml:"order,attr"`
	Enabled string `xml:"enabled,attr"`
}

// IsEnabled reports whether the sign has the layout turned on.
func (l Layout) IsEnabled() bool {
	return strings.TrimSpace(l.Enabled) == "1"
}

type responseEnvelope struct {
	Body struct {
		Fault   *fault `xml:"Fault"`
		Content []byte `xml:",innerxml"`
	} `xml:"Body"`
}

type fault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

// Firmware returns the Layouts document either as escaped text or as
// nested elements inside the result.
type getLayoutsResponse struct {
	Result struct {
		Text string   `xml:",chardata"`
		Doc  *Layouts `xml:"Layouts"`
	} `xml:"layouts"`
}

func marshalEnvelope(content any) ([]byte, error) {
	env := envelope{
		Soap: "http://schemas.xmlsoap.org/soap/envelope/",
		Body: body{Content: content},
	}
	out, err := xml.Marshal(env)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
