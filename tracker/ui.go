package main

import (
    "bytes"
    "fmt"
    "image/color"

    "github.com/kazzmir/modplayer/common"

    "github.com/hajimehoshi/ebiten/v2/text/v2"
    "golang.org/x/image/font/gofont/goregular"

    "github.com/ebitenui/ebitenui"
    "github.com/ebitenui/ebitenui/widget"
    ui_image "github.com/ebitenui/ebitenui/image"
)

// the visible part of the pattern above and below the playing row
const visibleRows = 64

type UIHooks struct {
    UpdateRow func(int)
    UpdateOrder func(int, int)
    UpdateSpeed func(int, int)
    UpdateStatus func(string)
}

func loadFont(size float64) (text.Face, error) {
    source, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
    if err != nil {
        return nil, err
    }

    return &text.GoTextFace{
        Source: source,
        Size: size,
    }, nil
}

type UIPlayer interface {
    Name() string
    CurrentOrder() int
    CurrentPattern() int
    SongLength() int
    Speed() int
    BPM() int
    ChannelCount() int
    IsMuted(track int) bool
    RowNoteInfo(track int, row int) common.NoteInfo
}

func makeVerticalContainer(spacing int, background color.Color) *widget.Container {
    options := []widget.ContainerOpt{
        widget.ContainerOpts.Layout(widget.NewRowLayout(
            widget.RowLayoutOpts.Direction(widget.DirectionVertical),
            widget.RowLayoutOpts.Spacing(spacing),
        )),
    }
    if background != nil {
        options = append(options, widget.ContainerOpts.BackgroundImage(ui_image.NewNineSliceColor(background)))
    }
    return widget.NewContainer(options...)
}

func noteText(note common.NoteInfo) string {
    return fmt.Sprintf("%v %v %v", note.GetName(), note.GetSampleName(), note.GetEffectName())
}

func makeUI(player UIPlayer, status string) (*ebitenui.UI, UIHooks, error) {
    face, err := loadFont(16)
    if err != nil {
        return nil, UIHooks{}, err
    }

    rootContainer := makeVerticalContainer(2, color.NRGBA{R: 32, G: 32, B: 32, A: 255})

    infoContainer := makeVerticalContainer(1, color.NRGBA{R: 64, G: 64, B: 64, A: 255})

    infoContainer.AddChild(widget.NewText(
        widget.TextOpts.Text(fmt.Sprintf("Mod name: %s", player.Name()), face, color.White),
    ))

    orderText := widget.NewText(
        widget.TextOpts.Text(fmt.Sprintf("Order: %v/%v", player.CurrentOrder(), player.SongLength()), face, color.White),
    )

    patternText := widget.NewText(
        widget.TextOpts.Text(fmt.Sprintf("Pattern: %02X", player.CurrentPattern()), face, color.White),
    )

    speedText := widget.NewText(
        widget.TextOpts.Text(fmt.Sprintf("Speed: %d BPM: %d", player.Speed(), player.BPM()), face, color.White),
    )

    statusText := widget.NewText(
        widget.TextOpts.Text(status, face, color.RGBA{R: 120, G: 220, B: 120, A: 255}),
    )

    infoContainer.AddChild(orderText)
    infoContainer.AddChild(patternText)
    infoContainer.AddChild(speedText)
    infoContainer.AddChild(statusText)

    rootContainer.AddChild(infoContainer)

    channels := widget.NewContainer(
        widget.ContainerOpts.Layout(widget.NewRowLayout(
            widget.RowLayoutOpts.Direction(widget.DirectionHorizontal),
            widget.RowLayoutOpts.Spacing(8),
        )),
    )

    makeRowScroller := func(content *widget.Container) *widget.ScrollContainer {
        return widget.NewScrollContainer(
            widget.ScrollContainerOpts.Content(content),
            widget.ScrollContainerOpts.StretchContentWidth(),
            widget.ScrollContainerOpts.WidgetOpts(
                widget.WidgetOpts.LayoutData(widget.RowLayoutData{
                    MaxHeight: 420,
                }),
            ),
            widget.ScrollContainerOpts.Image(&widget.ScrollContainerImage{
                Idle: ui_image.NewNineSliceColor(color.NRGBA{R: 32, G: 32, B: 32, A: 255}),
                Mask: ui_image.NewNineSliceColor(color.NRGBA{R: 255, G: 255, B: 255, A: 255}),
            }),
        )
    }

    // rowContainers[row] holds the cell of that row in every column so the whole
    // line can be highlighted
    rowContainers := make([][]*widget.Container, visibleRows)
    var scrollers []*widget.ScrollContainer

    rowNumbers := makeVerticalContainer(2, nil)
    for row := range visibleRows {
        textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
        if row % 4 == 0 {
            textColor = color.RGBA{R: 200, G: 200, B: 0, A: 255}
        }

        container := makeVerticalContainer(2, nil)
        container.AddChild(widget.NewText(
            widget.TextOpts.Text(fmt.Sprintf("%02X", row), face, textColor),
        ))
        rowContainers[row] = append(rowContainers[row], container)
        rowNumbers.AddChild(container)
    }

    rowNumberScroller := makeRowScroller(rowNumbers)
    scrollers = append(scrollers, rowNumberScroller)

    numberColumn := makeVerticalContainer(2, color.NRGBA{R: 32, G: 32, B: 32, A: 255})
    numberColumn.AddChild(widget.NewText(
        widget.TextOpts.Text(" ", face, color.White),
    ))
    numberColumn.AddChild(rowNumberScroller)
    channels.AddChild(numberColumn)

    var channelTitles []*widget.Text
    var channelColumn []*widget.Container
    for i := range player.ChannelCount() {
        column := makeVerticalContainer(2, color.NRGBA{R: 32, G: 32, B: 32, A: 255})

        title := widget.NewText(
            widget.TextOpts.Text(fmt.Sprintf("Track %d", i + 1), face, color.White),
        )
        channelTitles = append(channelTitles, title)
        column.AddChild(title)

        background := color.NRGBA{R: 64, G: 64, B: 64, A: 255}
        if i % 2 == 0 {
            background = color.NRGBA{R: 96, G: 96, B: 96, A: 255}
        }

        data := makeVerticalContainer(2, background)
        scroller := makeRowScroller(data)
        scrollers = append(scrollers, scroller)
        column.AddChild(scroller)

        channelColumn = append(channelColumn, data)
        channels.AddChild(column)
    }

    var removeCells []widget.RemoveChildFunc

    // fill the track columns with the notes of the pattern now playing
    setupChannels := func(){
        for _, remove := range removeCells {
            remove()
        }
        removeCells = nil

        for row := range visibleRows {
            rowContainers[row] = rowContainers[row][:1]
        }

        for i, container := range channelColumn {
            label := fmt.Sprintf("Track %d", i + 1)
            if player.IsMuted(i) {
                label += " (muted)"
            }
            channelTitles[i].Label = label

            for row := range visibleRows {
                cell := makeVerticalContainer(2, nil)
                cell.AddChild(widget.NewText(
                    widget.TextOpts.Position(widget.TextPositionCenter, widget.TextPositionCenter),
                    widget.TextOpts.Text(noteText(player.RowNoteInfo(i, row)), face, color.White),
                ))

                rowContainers[row] = append(rowContainers[row], cell)
                removeCells = append(removeCells, container.AddChild(cell))
            }
        }
    }

    setupChannels()

    rootContainer.AddChild(channels)

    ui := ebitenui.UI{
        Container: rootContainer,
    }

    currentRowHighlight := 0
    uiHooks := UIHooks{
        UpdateRow: func(row int) {
            if row < 0 || row >= len(rowContainers) {
                return
            }

            top := max(row - 10, 0)
            position := float64(top) / (visibleRows + 10)
            for _, scroller := range scrollers {
                scroller.ScrollTop = position
            }

            for _, container := range rowContainers[currentRowHighlight] {
                container.BackgroundImage = nil
            }
            currentRowHighlight = row
            for _, container := range rowContainers[row] {
                container.BackgroundImage = ui_image.NewNineSliceColor(color.NRGBA{R: 255, G: 0, B: 0, A: 128})
            }
        },
        UpdateOrder: func(order int, pattern int) {
            setupChannels()

            orderText.Label = fmt.Sprintf("Order: %v/%v", order, player.SongLength())
            patternText.Label = fmt.Sprintf("Pattern: %02X", pattern)
        },
        UpdateSpeed: func(speed int, bpm int) {
            speedText.Label = fmt.Sprintf("Speed: %d BPM: %d", speed, bpm)
        },
        UpdateStatus: func(status string) {
            statusText.Label = status
        },
    }

    uiHooks.UpdateRow(currentRowHighlight)

    return &ui, uiHooks, nil
}
